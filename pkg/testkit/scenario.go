// Package testkit provides the test tooling shared by canteen's packages:
//
//   - MockTransport, a RoundTripper with stubbed routes and call recording
//   - StoreMock, a testify mock of storage.Store for persistence failures
//   - Scenario files, JSON tables of gateway calls and expected outcomes
//   - Backend, an in-memory fake of the REST API for end-to-end tests
//
// Scenario files live next to the *_test.go files that run them:
//
//	testdata/
//	  gateway_scenarios.json
//
//	func TestScenarios(t *testing.T) {
//	    testkit.RunScenarios(t, "testdata/gateway_scenarios.json", func(t *testing.T, s *testkit.Scenario) {
//	        ...
//	    })
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// ─── Schema ───────────────────────────────────────────────────────────────────

// Scenario describes one gateway call and what must follow from it.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Token is placed in the session before the call.
	Token string `json:"token"`

	Request ScenarioRequest `json:"request"`
	Mock    MockStep        `json:"mock"`
	Expect  Expectation     `json:"expect"`
}

// ScenarioRequest mirrors gateway.Request.
type ScenarioRequest struct {
	Method       string                 `json:"method"`
	Path         string                 `json:"path"`
	Payload      map[string]interface{} `json:"payload"`
	RequiresAuth bool                   `json:"requiresAuth"`
}

// MockStep is the synthetic backend answer.
type MockStep struct {
	StatusCode     int             `json:"statusCode"`     // defaults to 200
	Body           json.RawMessage `json:"body"`           // JSON body
	RawBody        string          `json:"rawBody"`        // non-JSON body, wins over Body
	TransportError string          `json:"transportError"` // fail the round trip instead
}

// Expectation lists the observable outcome.
type Expectation struct {
	Kind           string            `json:"kind"` // "" for success, else network|application|unauthorized|invalid
	Message        string            `json:"message"`
	Data           json.RawMessage   `json:"data"`
	NoCall         bool              `json:"noCall"`
	Headers        map[string]string `json:"headers"`
	AbsentHeaders  []string          `json:"absentHeaders"`
	Query          map[string]string `json:"query"`
	Body           json.RawMessage   `json:"body"`
	SessionCleared bool              `json:"sessionCleared"`
	LoginRedirects int               `json:"loginRedirects"`
	Toasts         []string          `json:"toasts"`
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// LoadScenarios reads an array of scenarios from a JSON file.
func LoadScenarios(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	for i, s := range scenarios {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: invalid scenario %d in %q: %w", i, abs, err)
		}
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Request.Path == "" {
		return fmt.Errorf("request.path is required")
	}
	if s.Request.Method == "" {
		s.Request.Method = "GET"
	}
	if s.Mock.StatusCode == 0 {
		s.Mock.StatusCode = 200
	}
	return nil
}

// Transport builds a MockTransport answering every call with s.Mock.
func (s *Scenario) Transport() *MockTransport {
	mt := NewMockTransport()
	r := mt.On("", "")
	switch {
	case s.Mock.TransportError != "":
		r.Fail(fmt.Errorf("%s", s.Mock.TransportError))
	case s.Mock.RawBody != "":
		r.Reply(s.Mock.StatusCode, s.Mock.RawBody)
	default:
		r.Reply(s.Mock.StatusCode, string(s.Mock.Body))
	}
	return mt
}

// ─── Runner ───────────────────────────────────────────────────────────────────

// RunScenarios loads path and runs fn for each scenario as a subtest.
func RunScenarios(t *testing.T, path string, fn func(t *testing.T, s *Scenario)) {
	t.Helper()

	scenarios, err := LoadScenarios(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(scenarios) == 0 {
		t.Fatalf("testkit: no scenarios in %q", path)
	}

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			fn(t, s)
		})
	}
}
