// Package testkit provides a JSON-scenario-driven REST API testing framework.
//
// Each scenario is a JSON object that describes:
//   - The HTTP request to fire (method, URL, body file, headers)
//   - Expected HTTP status code
//   - Expected response body file (optional, compared as JSON)
//   - Response headers that must be present
//   - Body fields to ignore when comparing (timestamps, generated ids)
//
// A scenario file holds either one object or an array of objects. Arrays run
// in order against the same handler, so a file can describe a whole flow:
//
//	testdata/
//	  item_crud.json           ← scenario array
//	  create_book_req.json     ← request body
//	  book_res.json            ← expected response body
//
// Example _test.go:
//
//	func TestAPI(t *testing.T) {
//	    handler := newTestKernel(t).Handler()
//	    testkit.RunDir(t, handler, "testdata")
//	}
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// ─── Schema ───────────────────────────────────────────────────────────────────

// Scenario describes a single REST API test case.
type Scenario struct {
	// Meta
	Name        string `json:"name"`
	Description string `json:"description"`

	// Request
	RequestMethod   string            `json:"requestMethod"`   // GET, POST, PUT, DELETE
	RequestURL      string            `json:"requestUrl"`      // e.g. /api/v1/items
	RequestFileName string            `json:"requestFileName"` // JSON request body file (relative to scenario dir)
	RequestBody     json.RawMessage   `json:"requestBody"`     // inline body, used when requestFileName is empty
	Headers         map[string]string `json:"headers"`         // extra request headers

	// Response assertions
	ResponseFileName   string          `json:"responseFileName"`   // expected response JSON file
	ResponseBody       json.RawMessage `json:"responseBody"`       // inline expected body
	ExpectedCode       int             `json:"expectedCode"`       // expected HTTP status code
	ExpectedStatusCode int             `json:"expectedStatusCode"` // alias for expectedCode
	ExpectedHeaders    []string        `json:"expectedHeaders"`    // header names that must be non-empty
	IgnoreFields       []string        `json:"ignoreFields"`       // object keys dropped before comparing bodies
	ExpectEmptyBody    bool            `json:"expectEmptyBody"`

	// resolved at load time, not read from JSON
	dir string
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// LoadFile reads a scenario file holding one object or an array of objects.
func LoadFile(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(data, &scenarios); err != nil {
			return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
		}
	} else {
		var s Scenario
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
		}
		scenarios = []*Scenario{&s}
	}

	dir := filepath.Dir(abs)
	for i, s := range scenarios {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: invalid scenario %q[%d]: %w", abs, i, err)
		}
		s.dir = dir
	}
	return scenarios, nil
}

// LoadScenario reads a file holding exactly one scenario.
func LoadScenario(path string) (*Scenario, error) {
	scenarios, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if len(scenarios) != 1 {
		return nil, fmt.Errorf("testkit: %q holds %d scenarios, want 1", path, len(scenarios))
	}
	return scenarios[0], nil
}

// validate performs basic sanity checks and fills in defaults.
func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		s.ExpectedCode = s.ExpectedStatusCode
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = http.MethodGet
	}
	return nil
}

// RequestBodyPath returns the absolute path to the request body file,
// resolved relative to the scenario file's directory.
// Returns "" when RequestFileName is not set.
func (s *Scenario) RequestBodyPath() string {
	return s.resolve(s.RequestFileName)
}

// ResponseBodyPath returns the absolute path to the expected response file.
// Returns "" when ResponseFileName is not set.
func (s *Scenario) ResponseBodyPath() string {
	return s.resolve(s.ResponseFileName)
}

// requestBody returns the body to send, or nil for none.
func (s *Scenario) requestBody() ([]byte, error) {
	if p := s.RequestBodyPath(); p != "" {
		return os.ReadFile(p)
	}
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	return nil, nil
}

// expectedBody returns the expected response body, or nil when the body is
// not asserted.
func (s *Scenario) expectedBody() ([]byte, error) {
	if p := s.ResponseBodyPath(); p != "" {
		return os.ReadFile(p)
	}
	if len(s.ResponseBody) > 0 {
		return s.ResponseBody, nil
	}
	return nil, nil
}

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
