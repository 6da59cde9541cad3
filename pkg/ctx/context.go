// Package ctx provides the request context handed to HTTP handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context and returns an error:
//
//	func (ic *ItemController) Show(c *ctx.Context) error {
//	    id, ok := c.PathID("item_id")
//	    if !ok {
//	        return nil // 422 already sent
//	    }
//	    item, err := ic.svc.Get(c.Context(), id)
//	    if err != nil {
//	        return err // becomes a 500 carrying the request id
//	    }
//	    c.JSON(http.StatusOK, item)
//	    return nil
//	}
//
//	r.Get("/items/{item_id}", "items.show", ctx.Wrap(ic.Show))
//
// A returned error is handed to the request lifecycle middleware through
// pkg/fault, which logs it and answers 500.
package ctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/itemsapi/pkg/bind"
	"github.com/shashiranjanraj/itemsapi/pkg/fault"
	"github.com/shashiranjanraj/itemsapi/pkg/logger"
	"github.com/shashiranjanraj/itemsapi/pkg/reqid"
	"github.com/shashiranjanraj/itemsapi/pkg/response"
	"github.com/shashiranjanraj/itemsapi/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context) error

// Wrap converts a HandlerFunc to a standard http.HandlerFunc so it can be
// passed to any router method.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)

		err := h(c)
		if err == nil {
			return
		}
		if fault.Report(r.Context(), err) {
			return
		}
		// No lifecycle middleware in front of us: answer here.
		logger.WithCtx(r.Context()).Error("Unhandled handler error", "error", err.Error())
		response.InternalError(w, reqid.FromCtx(r.Context()))
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

// Context wraps a request/response pair and provides a rich helper API.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int // written status code (0 = not written yet)
}

// pool recycles Context objects to reduce GC pressure.
var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Body limit ───────────────────────────────────────────────────────────────

type bodyLimitKey struct{}

// BodyLimit is a middleware that sets the maximum JSON body size BindJSON
// accepts for every request below it.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyLimitKey{}, n)))
		})
	}
}

func bodyLimit(ctx context.Context) int64 {
	if n, ok := ctx.Value(bodyLimitKey{}).(int64); ok {
		return n
	}
	return bind.DefaultMaxBodyBytes
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter (e.g. "/items/{item_id}" → c.Param("item_id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// PathID parses a path parameter as a base-10 int64. On failure it sends a
// 422 naming the parameter, with a separate message for integers that
// overflow, and returns false.
func (c *Context) PathID(key string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		c.ValidationError(map[string]string{key: fmt.Sprintf("The %s is out of range.", key)})
		return 0, false
	case err != nil:
		c.ValidationError(map[string]string{key: fmt.Sprintf("The %s must be an integer.", key)})
		return 0, false
	}
	return id, true
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// QueryInt parses a query-string value as an integer, returning def when the
// key is absent or empty.
func (c *Context) QueryInt(key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("The %s must be an integer.", key)
	}
	return n, nil
}

// Method returns the HTTP method of the request.
func (c *Context) Method() string { return c.R.Method }

// Path returns the request URL path.
func (c *Context) Path() string { return c.R.URL.Path }

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// RequestID returns the correlation id of the current request.
func (c *Context) RequestID() string { return reqid.FromCtx(c.R.Context()) }

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation.
// On failure it sends the error response and returns false:
// 413 for an oversized body, 422 for malformed JSON or failed rules.
//
//	var input ItemCreate
//	if !c.BindJSON(&input) {
//	    return nil // response already sent
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest, bodyLimit(c.R.Context()))
	switch {
	case errors.Is(err, bind.ErrBodyTooLarge):
		c.Detail(http.StatusRequestEntityTooLarge, err.Error())
		return false
	case err != nil:
		c.Detail(http.StatusUnprocessableEntity, err.Error())
		return false
	case validate.HasErrors(errs):
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes a JSON response with the given status code.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Detail sends {"detail": message} with the given status.
func (c *Context) Detail(code int, message string) {
	c.status = code
	response.Detail(c.W, code, message)
}

// ValidationError sends a 422 Unprocessable Entity with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.status = http.StatusUnprocessableEntity
	response.ValidationError(c.W, errs)
}

// NotFound sends a 404 with the given detail.
func (c *Context) NotFound(message string) {
	c.Detail(http.StatusNotFound, message)
}

// NoContent sends an empty 204.
func (c *Context) NoContent() {
	c.status = http.StatusNoContent
	response.NoContent(c.W)
}

// WrittenStatus returns the HTTP status code that was written to the response,
// or 0 if no response has been written yet.
func (c *Context) WrittenStatus() int { return c.status }
