package logger

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

// FieldsHandler decorates every record with the service metadata and the
// caller location (module, function, line) before passing it on.
type FieldsHandler struct {
	next   slog.Handler
	static []slog.Attr
}

// NewFieldsHandler wraps next. environment, service and name are attached to
// every record as environment/service/logger.
func NewFieldsHandler(next slog.Handler, environment, service, name string) *FieldsHandler {
	return &FieldsHandler{
		next: next,
		static: []slog.Attr{
			slog.String("environment", environment),
			slog.String("service", service),
			slog.String("logger", name),
		},
	}
}

func (h *FieldsHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *FieldsHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.static...)
	module, function, line := caller(r.PC)
	r.AddAttrs(
		slog.String("module", module),
		slog.String("function", function),
		slog.Int("line", line),
	)
	return h.next.Handle(ctx, r)
}

func (h *FieldsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &FieldsHandler{next: h.next.WithAttrs(attrs), static: h.static}
}

func (h *FieldsHandler) WithGroup(name string) slog.Handler {
	return &FieldsHandler{next: h.next.WithGroup(name), static: h.static}
}

// caller resolves pc to the source file base name (without .go), the short
// function name and the line number.
func caller(pc uintptr) (module, function string, line int) {
	if pc == 0 {
		return "unknown", "unknown", 0
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()

	module = strings.TrimSuffix(filepath.Base(frame.File), ".go")
	function = frame.Function
	if i := strings.LastIndex(function, "/"); i >= 0 {
		function = function[i+1:]
	}
	if i := strings.Index(function, "."); i >= 0 {
		function = function[i+1:]
	}
	return module, function, frame.Line
}
