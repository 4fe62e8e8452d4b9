// Package account signs users in and out and manages their profile.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/canteen/pkg/cart"
	"github.com/shashiranjanraj/canteen/pkg/event"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	"github.com/shashiranjanraj/canteen/pkg/logger"
	"github.com/shashiranjanraj/canteen/pkg/session"
	"github.com/shashiranjanraj/canteen/pkg/validate"
)

// ErrBadCredentials is returned by Login when the backend refuses the
// username/password pair.
var ErrBadCredentials = errors.New("account: wrong username or password")

// Credentials are sent by Login.
type Credentials struct {
	Username string `json:"username" validate:"required,max=32"`
	Password string `json:"password" validate:"required"`
}

// Registration is sent by Register.
type Registration struct {
	Username string `json:"username"           validate:"required,min=3,max=32,alpha_dash"`
	Password string `json:"password"           validate:"required,min=6,max=64"`
	Nickname string `json:"nickname,omitempty" validate:"max=32"`
	Phone    string `json:"phone,omitempty"    validate:"nullable,digits,min=6,max=20"`
}

// ProfileUpdate changes the signed-in user's profile. Nil fields are left
// as they are.
type ProfileUpdate struct {
	Nickname  *string `json:"nickname,omitempty"   validate:"max=32"`
	Phone     *string `json:"phone,omitempty"      validate:"nullable,digits,min=6,max=20"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"nullable,url"`
}

// Member is a row of the admin user list.
type Member struct {
	session.User
	CreatedAt time.Time `json:"created_at"`
}

type authResult struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Service wraps the /user endpoints. Logout also empties cart, which may be
// nil.
type Service struct {
	gw   *gateway.Gateway
	cart *cart.Store
}

func New(gw *gateway.Gateway, c *cart.Store) *Service {
	return &Service{gw: gw, cart: c}
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, r Registration) (*session.User, error) {
	if err := validate.Check(r); err != nil {
		return nil, err
	}
	return s.signIn(ctx, "/user/register", r, "registered")
}

// Login exchanges credentials for a token and stores the session.
func (s *Service) Login(ctx context.Context, c Credentials) (*session.User, error) {
	if err := validate.Check(c); err != nil {
		return nil, err
	}
	u, err := s.signIn(ctx, "/user/login", c, "signed in")
	if gateway.IsUnauthorized(err) {
		return nil, fmt.Errorf("%w: %w", ErrBadCredentials, err)
	}
	return u, err
}

func (s *Service) signIn(ctx context.Context, path string, payload interface{}, greeting string) (*session.User, error) {
	env, err := s.gw.Call(ctx, gateway.Request{Path: path, Method: http.MethodPost, Payload: payload})
	if err != nil {
		return nil, err
	}
	res, err := gateway.Decode[authResult](env)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("account: %s returned no token", path)
	}

	if err := s.gw.Session().Set(res.Token, &res.User); err != nil {
		// Signed in for this run; the next start will ask again.
		logger.WithCtx(ctx).Error("account: persist session", "error", err)
	}
	s.gw.Bus().Fire(event.SessionChanged, true)
	s.gw.Bus().Toast(event.Success, greeting)
	return &res.User, nil
}

// Logout forgets the session and the cart. No backend call is made.
func (s *Service) Logout(ctx context.Context) error {
	var errs []error
	if err := s.gw.Session().Clear(); err != nil {
		errs = append(errs, err)
	}
	if s.cart != nil {
		if err := s.cart.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	s.gw.Bus().Fire(event.SessionChanged, false)
	if err := errors.Join(errs...); err != nil {
		logger.WithCtx(ctx).Error("account: logout", "error", err)
		return err
	}
	return nil
}

// Profile fetches the current profile and refreshes the cached one.
func (s *Service) Profile(ctx context.Context) (*session.User, error) {
	env, err := s.gw.Call(ctx, gateway.Request{
		Path:         "/user/info",
		Method:       http.MethodGet,
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	u, err := gateway.Decode[session.User](env)
	if err != nil {
		return nil, err
	}
	if err := s.gw.Session().SetUser(u); err != nil {
		logger.WithCtx(ctx).Warn("account: cache profile", "error", err)
	}
	return &u, nil
}

// Update sends the changed profile fields, then refreshes the cached
// profile from the backend.
func (s *Service) Update(ctx context.Context, p ProfileUpdate) (*session.User, error) {
	if err := validate.Check(p); err != nil {
		return nil, err
	}
	if _, err := s.gw.Call(ctx, gateway.Request{
		Path:         "/user/update",
		Method:       http.MethodPut,
		Payload:      p,
		RequiresAuth: true,
	}); err != nil {
		return nil, err
	}
	s.gw.Bus().Toast(event.Success, "profile updated")
	return s.Profile(ctx)
}

// Users lists customer accounts (admin).
func (s *Service) Users(ctx context.Context, page, size int) (gateway.Page[Member], error) {
	env, err := s.gw.Call(ctx, gateway.Request{
		Path:         "/admin/users",
		Method:       http.MethodGet,
		Payload:      map[string]int{"page": page, "page_size": size},
		RequiresAuth: true,
	})
	if err != nil {
		return gateway.Page[Member]{}, err
	}
	return gateway.Decode[gateway.Page[Member]](env)
}
