package order

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/canteen/pkg/session"
)

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		status Status
		role   session.Role
		want   []Event
	}{
		{Pending, session.Customer, []Event{MarkPaid, Cancel}},
		{Pending, session.Admin, []Event{MarkPaid, Cancel}},
		{Paid, session.Customer, nil},
		{Paid, session.Admin, []Event{StartDelivery}},
		{Delivering, session.Customer, nil},
		{Delivering, session.Admin, []Event{MarkComplete}},
		{Completed, session.Admin, nil},
		{Cancelled, session.Admin, nil},
		{Status(9), session.Admin, nil},
	}
	for _, tt := range tests {
		t.Run(Label(tt.status)+"/"+string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedTransitions(tt.status, tt.role))
		})
	}
}

func TestTransition(t *testing.T) {
	to, err := Transition(Pending, Cancel, session.Customer)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, to)

	to, err = Transition(Paid, StartDelivery, session.Admin)
	require.NoError(t, err)
	assert.Equal(t, Delivering, to)

	to, err = Transition(Delivering, MarkComplete, session.Admin)
	require.NoError(t, err)
	assert.Equal(t, Completed, to)

	_, err = Transition(Pending, StartDelivery, session.Admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Transition(Paid, StartDelivery, session.Customer)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Transition(Paid, Cancel, session.Admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	from, err := Transition(Completed, Cancel, session.Admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Completed, from, "status is returned unchanged")
}

func TestNextForward(t *testing.T) {
	for _, s := range []Status{Pending, Paid, Delivering} {
		ev, ok := NextForward(s, session.Admin)
		require.True(t, ok, Label(s))
		next, err := Transition(s, ev, session.Admin)
		require.NoError(t, err)
		assert.Equal(t, s+1, next)
	}

	ev, ok := NextForward(Pending, session.Customer)
	assert.True(t, ok)
	assert.Equal(t, MarkPaid, ev)

	_, ok = NextForward(Paid, session.Customer)
	assert.False(t, ok)

	_, ok = NextForward(Completed, session.Admin)
	assert.False(t, ok)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "pending payment", Label(Pending))
	assert.Equal(t, "paid", Label(Paid))
	assert.Equal(t, "delivering", Label(Delivering))
	assert.Equal(t, "completed", Label(Completed))
	assert.Equal(t, "cancelled", Label(Cancelled))
	assert.Equal(t, "unknown", Label(0))
	assert.Equal(t, "unknown", Label(42))
	assert.Equal(t, "paid", Paid.String())

	assert.True(t, Completed.Terminal())
	assert.True(t, Cancelled.Terminal())
	assert.False(t, Delivering.Terminal())
	assert.False(t, Status(7).Valid())
}

func TestStatusUnmarshal(t *testing.T) {
	var v struct {
		A Status `json:"a"`
		B Status `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 3, "b": "2"}`), &v))
	assert.Equal(t, Delivering, v.A)
	assert.Equal(t, Paid, v.B)

	assert.Error(t, json.Unmarshal([]byte(`{"a": "x"}`), &v))
}
