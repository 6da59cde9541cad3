// Package fault carries unhandled handler errors up to the request
// lifecycle middleware.
//
// The middleware installs a Slot in the request context; handlers that hit
// an error they cannot map to an HTTP status call Report and return without
// writing a response. The middleware then logs the fault and answers 500.
package fault

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
)

type ctxKey struct{}

// Fault is one unhandled failure with the stack captured where it was reported.
type Fault struct {
	Err   error
	Stack []byte
}

// Trace renders the wrapped error chain followed by the captured stack.
func (f *Fault) Trace() string {
	var b strings.Builder
	for err := f.Err; err != nil; err = errors.Unwrap(err) {
		b.WriteString(err.Error())
		b.WriteByte('\n')
	}
	b.Write(f.Stack)
	return b.String()
}

// Slot holds at most one fault per request. The first report wins.
type Slot struct {
	mu    sync.Mutex
	fault *Fault
}

// Set records err with the given stack unless a fault is already present.
func (s *Slot) Set(err error, stack []byte) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault == nil {
		s.fault = &Fault{Err: err, Stack: stack}
	}
}

// Fault returns the recorded fault or nil.
func (s *Slot) Fault() *Fault {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fault
}

// WithSlot returns a child context carrying a fresh Slot.
func WithSlot(ctx context.Context) (context.Context, *Slot) {
	s := &Slot{}
	return context.WithValue(ctx, ctxKey{}, s), s
}

// Report records err in the slot found in ctx. It returns false when no
// slot is installed, in which case the caller must answer the request itself.
func Report(ctx context.Context, err error) bool {
	s, ok := ctx.Value(ctxKey{}).(*Slot)
	if !ok || s == nil {
		return false
	}
	s.Set(err, debug.Stack())
	return true
}
