package order

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/canteen/pkg/session"
)

// Status is the backend's numeric order status.
type Status int

const (
	Pending Status = iota + 1
	Paid
	Delivering
	Completed
	Cancelled
)

var labels = map[Status]string{
	Pending:    "pending payment",
	Paid:       "paid",
	Delivering: "delivering",
	Completed:  "completed",
	Cancelled:  "cancelled",
}

// Label is the display text of a status; unknown codes read "unknown".
func Label(s Status) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return "unknown"
}

func (s Status) String() string { return Label(s) }

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Terminal reports whether no further transition exists.
func (s Status) Terminal() bool { return s == Completed || s == Cancelled }

// Event names a transition request.
type Event string

const (
	Cancel        Event = "cancel"
	MarkPaid      Event = "markPaid"
	StartDelivery Event = "startDelivery"
	MarkComplete  Event = "markComplete"
)

// ErrInvalidTransition is returned when an event is not offered for the
// current status and role. Nothing is sent to the backend.
var ErrInvalidTransition = errors.New("order: invalid transition")

type edge struct {
	to    Status
	admin bool // admin only
}

var table = map[Status]map[Event]edge{
	Pending: {
		MarkPaid: {to: Paid},
		Cancel:   {to: Cancelled},
	},
	Paid: {
		StartDelivery: {to: Delivering, admin: true},
	},
	Delivering: {
		MarkComplete: {to: Completed, admin: true},
	},
}

// eventOrder keeps offers stable so UIs render the forward action first.
var eventOrder = []Event{MarkPaid, StartDelivery, MarkComplete, Cancel}

// AllowedTransitions lists the events role may apply to an order in status s.
// Terminal and unknown statuses offer nothing.
func AllowedTransitions(s Status, role session.Role) []Event {
	edges := table[s]
	var out []Event
	for _, ev := range eventOrder {
		e, ok := edges[ev]
		if !ok || (e.admin && role != session.Admin) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Transition returns the status reached by applying ev.
func Transition(s Status, ev Event, role session.Role) (Status, error) {
	e, ok := table[s][ev]
	if !ok || (e.admin && role != session.Admin) {
		return s, fmt.Errorf("%w: %s from %s as %s", ErrInvalidTransition, ev, Label(s), role)
	}
	return e.to, nil
}

// NextForward is the single advancing event offered to role, if any.
// Cancel never counts as forward.
func NextForward(s Status, role session.Role) (Event, bool) {
	for _, ev := range AllowedTransitions(s, role) {
		if ev != Cancel {
			return ev, true
		}
	}
	return "", false
}

// StatusChange is the payload of event.OrderStatusChanged.
type StatusChange struct {
	OrderID int64
	From    Status
	To      Status
	Event   Event
}

// UnmarshalJSON accepts numeric statuses encoded as numbers or strings.
func (s *Status) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("order: status: %w", err)
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("order: status: %w", err)
	}
	*s = Status(v)
	return nil
}
