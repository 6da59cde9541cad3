package middleware_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/shashiranjanraj/itemsapi/pkg/ctx"
	"github.com/shashiranjanraj/itemsapi/pkg/logger"
	"github.com/shashiranjanraj/itemsapi/pkg/middleware"
	"github.com/shashiranjanraj/itemsapi/pkg/reqid"
)

var responseTimeRE = regexp.MustCompile(`^\d+\.\d{3}s$`)

type logSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) records(t *testing.T) []map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(s.buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func newLogger(sink *logSink) *slog.Logger {
	h := slog.NewJSONHandler(sink, logger.HandlerOptions(slog.LevelDebug))
	return slog.New(logger.NewFieldsHandler(h, "development", "items-api", logger.Name))
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, []map[string]any, *logSink) {
	t.Helper()
	sink := &logSink{}
	rec := httptest.NewRecorder()
	middleware.Lifecycle(newLogger(sink))(h).ServeHTTP(rec, req)
	return rec, sink.records(t), sink
}

func byMessage(recs []map[string]any, msg string) []map[string]any {
	var out []map[string]any
	for _, r := range recs {
		if r["message"] == msg {
			out = append(out, r)
		}
	}
	return out
}

func TestLifecycleSuccess(t *testing.T) {
	var seenID string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = reqid.FromCtx(r.Context())
		logger.WithCtx(r.Context()).Info("inside handler")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/?a=1&a=2&b=x", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec, recs, _ := serve(t, h, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	id := rec.Header().Get(reqid.Header)
	assert.Equal(t, seenID, id)
	assert.Regexp(t, `^[0-9a-f-]{36}$`, id)
	assert.Regexp(t, responseTimeRE, rec.Header().Get(middleware.ResponseTimeHeader))

	incoming := byMessage(recs, "Incoming request")
	completed := byMessage(recs, "Request completed")
	require.Len(t, incoming, 1)
	require.Len(t, completed, 1)
	assert.Empty(t, byMessage(recs, "Request failed"))

	in := incoming[0]
	assert.Equal(t, id, in["request_id"])
	assert.Equal(t, "POST", in["method"])
	assert.Equal(t, "/api/v1/items/", in["path"])
	assert.Equal(t, "a=1&a=2&b=x", in["query_params"])
	assert.Equal(t, "10.1.2.3", in["client_ip"])
	assert.Equal(t, "INFO", in["level"])

	done := completed[0]
	assert.Equal(t, id, done["request_id"])
	assert.EqualValues(t, http.StatusCreated, done["status_code"])
	assert.Contains(t, done, "response_time_ms")

	inner := byMessage(recs, "inside handler")
	require.Len(t, inner, 1)
	assert.Equal(t, id, inner[0]["request_id"])
}

func TestLifecycleIgnoresClientRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(reqid.Header, "client-chosen")
	rec, _, _ := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "client-chosen", rec.Header().Get(reqid.Header))
}

func TestLifecycleFreshIDPerRequest(t *testing.T) {
	h := middleware.Lifecycle(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get(reqid.Header)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func assertFailure(t *testing.T, rec *httptest.ResponseRecorder, recs []map[string]any, wantErr string) {
	t.Helper()
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	id := rec.Header().Get(reqid.Header)
	require.NotEmpty(t, id)
	assert.Regexp(t, responseTimeRE, rec.Header().Get(middleware.ResponseTimeHeader))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"detail": "Internal server error", "request_id": id}, body)

	require.Len(t, byMessage(recs, "Incoming request"), 1)
	assert.Empty(t, byMessage(recs, "Request completed"))
	failed := byMessage(recs, "Request failed")
	require.Len(t, failed, 1)

	f := failed[0]
	assert.Equal(t, "ERROR", f["level"])
	assert.Equal(t, id, f["request_id"])
	assert.EqualValues(t, 500, f["status_code"])
	assert.Contains(t, f["error"], wantErr)
	assert.Contains(t, f["trace"], "goroutine")
	assert.Contains(t, f, "response_time_ms")
}

func TestLifecycleReportedFault(t *testing.T) {
	h := appctx.Wrap(func(c *appctx.Context) error {
		c.JSON(http.StatusOK, map[string]string{"partial": "output"})
		return errors.New("connection refused")
	})

	rec, recs, _ := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	assertFailure(t, rec, recs, "connection refused")
	assert.NotContains(t, rec.Body.String(), "partial")
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestLifecyclePanic(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map write")
	})
	rec, recs, _ := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assertFailure(t, rec, recs, "nil map write")
}

func TestLifecycleRepanicsAbortHandler(t *testing.T) {
	sink := &logSink{}
	h := middleware.Lifecycle(newLogger(sink))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Len(t, byMessage(sink.records(t), "Request failed"), 1)
}

type explodingHandler struct{}

func (explodingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (explodingHandler) Handle(context.Context, slog.Record) error { panic("sink down") }
func (h explodingHandler) WithAttrs([]slog.Attr) slog.Handler     { return h }
func (h explodingHandler) WithGroup(string) slog.Handler          { return h }

func TestLifecycleSurvivesLoggerPanic(t *testing.T) {
	h := middleware.Lifecycle(slog.New(explodingHandler{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(reqid.Header))
}
