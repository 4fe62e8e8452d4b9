package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, "done", map[string]int{"id": 7})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":200,"message":"done","data":{"id":7}}`, rec.Body.String())
}

func TestRejectKeepsHTTP200(t *testing.T) {
	rec := httptest.NewRecorder()
	Reject(rec, 400, "order cannot be cancelled")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":400,"message":"order cannot be cancelled"}`, rec.Body.String())
}

func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []string{"a"}, 3, 2, 1)

	assert.JSONEq(t, `{"code":200,"message":"success","data":{"list":["a"],"total":3,"page":2,"page_size":1}}`, rec.Body.String())
}

func TestUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	Unauthorized(rec, "invalid token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"invalid token"}`, rec.Body.String())
}

func TestMarshal(t *testing.T) {
	raw, err := Marshal(500, "boom", nil)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"code":500,"message":"boom"}`, string(raw))
}
