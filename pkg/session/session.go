// Package session holds the signed-in user's token and cached profile.
//
// A Store is the single source of truth for "who is signed in". It is loaded
// from durable storage on Open, mutated by login/logout and by the gateway
// when the backend answers 401, and persisted on every change:
//
//	sess, err := session.Open(st)
//	_ = sess.Set(token, &user)
//	if sess.Authenticated() { ... }
//	_ = sess.Clear()
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/canteen/pkg/auth"
	"github.com/shashiranjanraj/canteen/pkg/logger"
	"github.com/shashiranjanraj/canteen/pkg/storage"
)

// Storage keys, shared with older clients.
const (
	KeyToken = "user_token"
	KeyUser  = "userInfo"
)

// ------------------- Role -------------------

// Role gates which order transitions a user is offered.
type Role string

const (
	Customer Role = "customer"
	Admin    Role = "admin"
)

// UnmarshalJSON maps the backend's "user" (or a missing role) to Customer.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("session: role: %w", err)
	}
	if s == string(Admin) {
		*r = Admin
	} else {
		*r = Customer
	}
	return nil
}

// ------------------- User -------------------

// User is the cached profile returned by login and /user/info.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      Role   `json:"role"`
}

// DisplayName prefers the nickname.
func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// ------------------- Store -------------------

// Store is safe for concurrent use. Reads see the latest write immediately;
// concurrent writers resolve last-writer-wins.
type Store struct {
	mu    sync.RWMutex
	st    storage.Store
	token string
	user  *User
	now   func() time.Time

	hooksMu sync.RWMutex
	hooks   []func(authenticated bool)
}

// Open loads the persisted token and profile from st. A missing key is an
// empty session; an undecodable one is an error.
func Open(st storage.Store) (*Store, error) {
	s := &Store{st: st, now: time.Now}

	raw, err := st.Get(KeyToken)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case errors.Is(err, storage.ErrSealed):
		return unreadable(st, err), nil
	case err != nil:
		return nil, fmt.Errorf("session: load token: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.token); err != nil {
			return nil, fmt.Errorf("session: decode token: %w", err)
		}
	}

	raw, err = st.Get(KeyUser)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case errors.Is(err, storage.ErrSealed):
		return unreadable(st, err), nil
	case err != nil:
		return nil, fmt.Errorf("session: load user: %w", err)
	default:
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("session: decode user: %w", err)
		}
		s.user = &u
	}

	return s, nil
}

// unreadable starts signed out when the saved session was written under
// another STORAGE_SECRET, or before one was set. The next login overwrites it.
func unreadable(st storage.Store, err error) *Store {
	logger.Warn("session: saved session unreadable, starting signed out", "error", err)
	return &Store{st: st, now: time.Now}
}

// WithClock swaps the time source used for token expiry checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// OnChange registers fn to run after every Set or Clear.
func (s *Store) OnChange(fn func(authenticated bool)) {
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

// Set stores a new token and profile. The in-memory session changes even if
// persisting fails; the error tells the caller the change will not survive a
// restart.
func (s *Store) Set(token string, user *User) error {
	var u *User
	if user != nil {
		cp := *user
		u = &cp
	}

	s.mu.Lock()
	s.token = token
	s.user = u
	err := s.persistLocked()
	s.mu.Unlock()

	s.fire(token != "")
	return err
}

// SetUser replaces the cached profile and keeps the token.
func (s *Store) SetUser(user User) error {
	s.mu.Lock()
	s.user = &user
	err := s.persistLocked()
	s.mu.Unlock()
	return err
}

// Clear forgets the token and the profile.
func (s *Store) Clear() error {
	s.mu.Lock()
	err := s.clearLocked()
	s.mu.Unlock()

	s.fire(false)
	return err
}

// ClearIf clears the session only while it still holds token, and reports
// whether it did. A session replaced by a newer login is left alone.
func (s *Store) ClearIf(token string) (bool, error) {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return false, nil
	}
	err := s.clearLocked()
	s.mu.Unlock()

	s.fire(false)
	return true, err
}

func (s *Store) clearLocked() error {
	s.token = ""
	s.user = nil
	var errs []error
	if err := s.st.Delete(KeyToken); err != nil {
		errs = append(errs, err)
	}
	if err := s.st.Delete(KeyUser); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Token returns the current token, or "" when there is none or it is a JWT
// whose exp has passed.
func (s *Store) Token() string {
	s.mu.RLock()
	tok, now := s.token, s.now
	s.mu.RUnlock()

	if tok == "" {
		return ""
	}
	if auth.Expired(tok, now()) {
		logger.Debug("session: token expired locally")
		return ""
	}
	return tok
}

// Authenticated reports whether a usable token is held.
func (s *Store) Authenticated() bool { return s.Token() != "" }

// User returns a copy of the cached profile, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

// Role returns the signed-in user's role, Customer when unknown.
func (s *Store) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user != nil && s.user.Role == Admin {
		return Admin
	}
	return Customer
}

func (s *Store) persistLocked() error {
	tok, err := json.Marshal(s.token)
	if err != nil {
		return fmt.Errorf("session: encode token: %w", err)
	}
	if err := s.st.Put(KeyToken, tok); err != nil {
		return fmt.Errorf("session: persist token: %w", err)
	}

	if s.user == nil {
		if err := s.st.Delete(KeyUser); err != nil {
			return fmt.Errorf("session: persist user: %w", err)
		}
		return nil
	}
	u, err := json.Marshal(s.user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := s.st.Put(KeyUser, u); err != nil {
		return fmt.Errorf("session: persist user: %w", err)
	}
	return nil
}

func (s *Store) fire(authenticated bool) {
	s.hooksMu.RLock()
	hooks := make([]func(bool), len(s.hooks))
	copy(hooks, s.hooks)
	s.hooksMu.RUnlock()

	for _, h := range hooks {
		h(authenticated)
	}
}
