package testkit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code.
func AssertStatusCode(t *testing.T, s *Scenario, got int) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] HTTP status code mismatch", s.Name)
}

// AssertHeaders fails for every expected header that is missing or empty.
func AssertHeaders(t *testing.T, s *Scenario, h http.Header) {
	t.Helper()
	for _, name := range s.ExpectedHeaders {
		assert.NotEmpty(t, h.Get(name), "[%s] missing response header %s", s.Name, name)
	}
}

func AssertEmptyBody(t *testing.T, s *Scenario, body []byte) {
	t.Helper()
	assert.Empty(t, body, "[%s] expected an empty body, got %s", s.Name, body)
}

// AssertJSONBody compares the decoded bodies, so key order and whitespace
// never matter. Keys in s.IgnoreFields are dropped at every depth first.
// An empty expected body skips the check.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var want, got any
	require.NoError(t, json.Unmarshal(expected, &want), "[%s] expected body is not valid JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &got), "[%s] response is not valid JSON: %s", s.Name, actual) {
		return
	}

	for _, key := range s.IgnoreFields {
		dropKey(want, key)
		dropKey(got, key)
	}
	if reflect.DeepEqual(want, got) {
		return
	}

	t.Errorf("[%s] response body mismatch", s.Name)
	for _, d := range DiffJSON("", want, got) {
		t.Log(d)
	}
}

func dropKey(v any, key string) {
	switch x := v.(type) {
	case map[string]any:
		delete(x, key)
		for _, child := range x {
			dropKey(child, key)
		}
	case []any:
		for _, child := range x {
			dropKey(child, key)
		}
	}
}

// DiffJSON lists the differences between two decoded JSON values, one line
// per differing leaf, in key order. path prefixes every reported location.
func DiffJSON(path string, want, got any) []string {
	at := path
	if at == "" {
		at = "$"
	}

	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: want object, got %T", at, got)}
		}
		var diffs []string
		for _, k := range unionKeys(w, g) {
			wv, inWant := w[k]
			gv, inGot := g[k]
			switch {
			case !inGot:
				diffs = append(diffs, fmt.Sprintf("%s.%s: missing", at, k))
			case !inWant:
				diffs = append(diffs, fmt.Sprintf("%s.%s: unexpected %v", at, k, gv))
			default:
				diffs = append(diffs, DiffJSON(at+"."+k, wv, gv)...)
			}
		}
		return diffs

	case []any:
		g, ok := got.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: want array, got %T", at, got)}
		}
		var diffs []string
		if len(w) != len(g) {
			diffs = append(diffs, fmt.Sprintf("%s: want %d elements, got %d", at, len(w), len(g)))
		}
		for i := 0; i < min(len(w), len(g)); i++ {
			diffs = append(diffs, DiffJSON(fmt.Sprintf("%s[%d]", at, i), w[i], g[i])...)
		}
		return diffs
	}

	if !reflect.DeepEqual(want, got) {
		return []string{fmt.Sprintf("%s: want %v, got %v", at, want, got)}
	}
	return nil
}

func unionKeys(a, b map[string]any) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, dup := a[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
