package testkit

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenarios_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"ok","request":{"path":"/x"}}]`), 0o644))

	got, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "GET", got[0].Request.Method)
	assert.Equal(t, 200, got[0].Mock.StatusCode)
}

func TestLoadScenarios_Invalid(t *testing.T) {
	dir := t.TempDir()
	noName := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(noName, []byte(`[{"request":{"path":"/x"}}]`), 0o644))
	_, err := LoadScenarios(noName)
	assert.ErrorContains(t, err, "name is required")

	bad := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err = LoadScenarios(bad)
	assert.ErrorContains(t, err, "parse")
}

func TestScenarioTransport(t *testing.T) {
	s := &Scenario{Name: "x", Request: ScenarioRequest{Path: "/x"}, Mock: MockStep{RawBody: "<html>"}}
	require.NoError(t, s.validate())

	client := &http.Client{Transport: s.Transport()}
	resp, err := client.Get("http://backend.test/api/anything")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.Mock.TransportError = "connection refused"
	client = &http.Client{Transport: s.Transport()}
	_, err = client.Get("http://backend.test/api/anything")
	assert.ErrorContains(t, err, "connection refused")
}

func TestMockTransport_RoutesAndRecording(t *testing.T) {
	mt := NewMockTransport()
	mt.On("GET", "/dish/list").Envelope(200, "success", []int{1})
	mt.On("DELETE", "/order/3").Reply(http.StatusUnauthorized, "")

	client := &http.Client{Transport: mt}
	resp, err := client.Get("http://backend.test/api/dish/list?status=1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, "http://backend.test/api/order/3", nil)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = client.Get("http://backend.test/api/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 3, mt.CallCount())
	assert.Equal(t, "1", mt.Calls()[0].Query.Get("status"))
	mt.AssertAllCalled(t)

	mt.Require = true
	_, err = client.Get("http://backend.test/api/unknown")
	assert.Error(t, err)
}
