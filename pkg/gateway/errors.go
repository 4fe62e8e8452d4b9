package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind int

const (
	// NetworkError means no usable response: transport failure, unexpected
	// HTTP status, or a body that is not an envelope.
	NetworkError Kind = iota + 1
	// ApplicationError means the backend answered with an envelope whose code
	// is not 200. The message is the backend's own.
	ApplicationError
	// Unauthorized means the backend answered 401. The session is gone and
	// the caller must not retry.
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case NetworkError:
		return "network"
	case ApplicationError:
		return "application"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// User-facing messages.
const (
	MsgNetwork       = "network error"
	MsgRequestFailed = "request failed"
	MsgLoginRequired = "please log in"
)

// ErrInvalidMethod is returned before any I/O when the method is not one of
// GET, POST, PUT or DELETE.
var ErrInvalidMethod = errors.New("gateway: invalid method")

// Failure is the error returned for every call that reached the transport.
type Failure struct {
	Kind    Kind
	Message string
	Status  int // HTTP status, 0 when no response
	Code    int // envelope code for ApplicationError
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("gateway: %s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("gateway: %s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf returns the failure kind of err, if it is a *Failure.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// IsUnauthorized reports whether err is a 401 failure.
func IsUnauthorized(err error) bool {
	k, ok := KindOf(err)
	return ok && k == Unauthorized
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
