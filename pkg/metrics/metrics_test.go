package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCall(t *testing.T) {
	before := testutil.ToFloat64(GatewayCalls.WithLabelValues("GET", "/dish/{id}", "ok"))

	ObserveCall("GET", "/dish/{id}", "ok", time.Now())

	after := testutil.ToFloat64(GatewayCalls.WithLabelValues("GET", "/dish/{id}", "ok"))
	assert.Equal(t, before+1, after)
}

func TestCartOp(t *testing.T) {
	okBefore := testutil.ToFloat64(CartMutations.WithLabelValues("add", "ok"))
	errBefore := testutil.ToFloat64(CartMutations.WithLabelValues("add", "error"))

	CartOp("add", nil)
	CartOp("add", errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(CartMutations.WithLabelValues("add", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(CartMutations.WithLabelValues("add", "error")))
}

func TestHandler(t *testing.T) {
	OrdersSubmitted.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "canteen_order_submitted_total")
}
