// Package testkit: runner.go
//
// Run() executes the scenarios of one file against an http.Handler.
// RunDir() discovers all *.json scenario files in a directory and runs them as subtests.
package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// ─── Public API ───────────────────────────────────────────────────────────────

// Run executes every scenario in the file at scenarioPath, in order, each as
// a subtest. A failing step does not stop the steps after it.
//
// Lifecycle per scenario:
//  1. Read the request body (file or inline).
//  2. Fire the request against handler using httptest.
//  3. Assert status code and required headers.
//  4. Assert the response body (JSON diff, ignored fields removed).
func Run(t *testing.T, handler http.Handler, scenarioPath string) {
	t.Helper()

	scenarios, err := LoadFile(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, handler, s)
		})
	}
}

// RunDir runs every *.json file in dir whose name does not end in _req.json
// or _res.json, in file-name order. Each file becomes a subtest named after it.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()

	paths, err := scenarioFiles(dir)
	if err != nil || len(paths) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		t.Run(name, func(t *testing.T) {
			Run(t, handler, path)
		})
	}
}

func scenarioFiles(dir string) ([]string, error) {
	all, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range all {
		if strings.HasSuffix(p, "_req.json") || strings.HasSuffix(p, "_res.json") {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// ─── Internal execution ───────────────────────────────────────────────────────

func runScenario(t *testing.T, handler http.Handler, s *Scenario) {
	t.Helper()

	// ── 1. Build request body ─────────────────────────────────────────────

	var reqBody io.Reader
	data, err := s.requestBody()
	if err != nil {
		t.Fatalf("[%s] read request body: %v", s.Name, err)
	}
	if data != nil {
		reqBody = bytes.NewReader(data)
	}

	// ── 2. Fire the request ───────────────────────────────────────────────

	req := httptest.NewRequest(strings.ToUpper(s.RequestMethod), s.RequestURL, reqBody)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// ── 3. Assert status code and headers ─────────────────────────────────

	AssertStatusCode(t, s, rec.Code)
	AssertHeaders(t, s, rec.Header())

	// ── 4. Assert response body ───────────────────────────────────────────

	if s.ExpectEmptyBody {
		AssertEmptyBody(t, s, rec.Body.Bytes())
		return
	}
	expected, err := s.expectedBody()
	if err != nil {
		t.Errorf("[%s] read expected body: %v", s.Name, err)
		return
	}
	AssertJSONBody(t, s, expected, rec.Body.Bytes())
}

// ─── Debug helpers ────────────────────────────────────────────────────────────

// DumpScenario prints a human-readable summary of the scenario to w.
func DumpScenario(w io.Writer, s *Scenario) {
	fmt.Fprintf(w, "Scenario: %s\n", s.Name)
	fmt.Fprintf(w, "  %s %s → %d\n", s.RequestMethod, s.RequestURL, s.ExpectedCode)
	fmt.Fprintf(w, "  requestFile:  %s\n", s.RequestFileName)
	fmt.Fprintf(w, "  responseFile: %s\n", s.ResponseFileName)
	if len(s.IgnoreFields) > 0 {
		fmt.Fprintf(w, "  ignore: %s\n", strings.Join(s.IgnoreFields, ", "))
	}
}
