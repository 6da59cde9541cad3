package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/shashiranjanraj/itemsapi/pkg/fault"
	"github.com/shashiranjanraj/itemsapi/pkg/logger"
	"github.com/shashiranjanraj/itemsapi/pkg/reqid"
	"github.com/shashiranjanraj/itemsapi/pkg/response"
)

// ResponseTimeHeader carries the elapsed handling time, e.g. "0.012s".
const ResponseTimeHeader = "X-Response-Time"

// Lifecycle wraps every request with a fresh correlation id, timing and the
// "Incoming request" / "Request completed" / "Request failed" log events.
//
// Downstream handlers see the id through reqid.FromCtx and a request-scoped
// logger through logger.WithCtx. A panic, or an error handed to
// fault.Report, turns into a 500 carrying the id; the handler's own output
// is discarded in that case.
//
//	r.Use(middleware.Lifecycle(log))
func Lifecycle(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := reqid.New()
			reqLog := base.With("request_id", id)

			ctx := reqid.WithValue(r.Context(), id)
			ctx = logger.InjectLogger(ctx, reqLog)
			ctx, slot := fault.WithSlot(ctx)
			r = r.WithContext(ctx)

			safeLog(func() {
				reqLog.Info("Incoming request",
					"method", r.Method,
					"path", r.URL.Path,
					"query_params", r.URL.RawQuery,
					"client_ip", clientIP(r),
				)
			})

			bw := newBufferedWriter()
			aborted := serve(next, bw, r, slot)
			elapsed := time.Since(start)

			if f := slot.Fault(); f != nil {
				safeLog(func() {
					reqLog.Error("Request failed",
						"method", r.Method,
						"path", r.URL.Path,
						"status_code", http.StatusInternalServerError,
						"response_time_ms", millis(elapsed),
						"error", f.Err.Error(),
						"trace", f.Trace(),
					)
				})
				if aborted {
					panic(http.ErrAbortHandler)
				}
				setLifecycleHeaders(w.Header(), id, elapsed)
				response.InternalError(w, id)
				return
			}

			safeLog(func() {
				reqLog.Info("Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status_code", bw.Status(),
					"response_time_ms", millis(elapsed),
				)
			})
			setLifecycleHeaders(bw.Header(), id, elapsed)
			_ = bw.flushTo(w)
		})
	}
}

// serve runs next once, turning a panic into a fault on slot. It reports
// whether the panic was http.ErrAbortHandler, which must be re-raised.
func serve(next http.Handler, w http.ResponseWriter, r *http.Request, slot *fault.Slot) (aborted bool) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		err, ok := rec.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", rec)
		}
		aborted = errors.Is(err, http.ErrAbortHandler)
		slot.Set(err, debug.Stack())
	}()
	next.ServeHTTP(w, r)
	return false
}

func setLifecycleHeaders(h http.Header, id string, elapsed time.Duration) {
	h.Set(reqid.Header, id)
	h.Set(ResponseTimeHeader, fmt.Sprintf("%.3fs", elapsed.Seconds()))
}

// safeLog runs fn and swallows any panic from the logging pipeline.
func safeLog(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func millis(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Millisecond)*100) / 100
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
