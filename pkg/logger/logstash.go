package logger

// LogstashWriter ships JSON log lines to a Logstash TCP input
// (codec => json_lines) without blocking the caller:
//
//   - Write copies the line into a bounded channel and returns at once.
//     When the channel is full the line is dropped and counted.
//   - One background goroutine drains the channel in batches, dialling
//     lazily and reconnecting with exponential backoff.
//   - Lines older than logstashEventTTL are discarded instead of sent.
//   - Close flushes what is left and closes the connection.

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	logstashQueueSize    = 4096
	logstashBatchSize    = 50
	logstashDrainTick    = 2 * time.Second
	logstashEventTTL     = 30 * time.Second
	logstashDialTimeout  = 3 * time.Second
	logstashWriteTimeout = 5 * time.Second
	logstashMaxBackoff   = 30 * time.Second
	logstashCloseWait    = 5 * time.Second
)

type queuedLine struct {
	at   time.Time
	data []byte
}

// LogstashWriter is an io.Writer that forwards each written line to Logstash.
// Pair it with slog.NewJSONHandler to get one JSON record per line.
type LogstashWriter struct {
	addr   string
	status *slog.Logger
	dial   func(ctx context.Context, network, addr string) (net.Conn, error)

	queue     chan queuedLine
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64

	// owned by drainLoop
	conn      net.Conn
	pending   []queuedLine
	backoff   time.Duration
	retryAt   time.Time
	connected bool
}

// NewLogstashWriter starts the background sender for addr (host:port).
// Connection state changes are reported on status, which must not itself
// write to this LogstashWriter.
func NewLogstashWriter(addr string, status *slog.Logger) *LogstashWriter {
	d := &net.Dialer{Timeout: logstashDialTimeout, KeepAlive: 30 * time.Second}
	w := &LogstashWriter{
		addr:    addr,
		status:  status,
		dial:    d.DialContext,
		queue:   make(chan queuedLine, logstashQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.drainLoop()
	return w
}

// Write enqueues a copy of p. It never blocks and never fails.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	select {
	case <-w.done:
		return len(p), nil
	default:
	}

	line := make([]byte, len(p))
	copy(line, p)
	select {
	case w.queue <- queuedLine{at: time.Now(), data: line}:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped reports how many lines were discarded because the queue was full
// or the lines expired before they could be delivered.
func (w *LogstashWriter) Dropped() uint64 { return w.dropped.Load() }

// Close flushes pending lines and closes the connection. Safe to call more
// than once.
func (w *LogstashWriter) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		select {
		case <-w.stopped:
		case <-time.After(logstashCloseWait):
		}
	})
}

// ─── Internals ────────────────────────────────────────────────────────────────

func (w *LogstashWriter) drainLoop() {
	defer close(w.stopped)
	ticker := time.NewTicker(logstashDrainTick)
	defer ticker.Stop()

	for {
		select {
		case l := <-w.queue:
			w.pending = append(w.pending, l)
			if len(w.pending) >= logstashBatchSize {
				w.flush()
			}
		case <-ticker.C:
			w.flush()
		case <-w.done:
			for len(w.queue) > 0 {
				w.pending = append(w.pending, <-w.queue)
			}
			w.retryAt = time.Time{}
			w.flush()
			if w.conn != nil {
				_ = w.conn.Close()
				w.conn = nil
			}
			return
		}
	}
}

func (w *LogstashWriter) flush() {
	w.expire()
	if len(w.pending) == 0 {
		return
	}
	if !w.ensureConn() {
		return
	}

	var buf bytes.Buffer
	for _, l := range w.pending {
		buf.Write(l.data)
		if n := len(l.data); n == 0 || l.data[n-1] != '\n' {
			buf.WriteByte('\n')
		}
	}

	_ = w.conn.SetWriteDeadline(time.Now().Add(logstashWriteTimeout))
	if _, err := w.conn.Write(buf.Bytes()); err != nil {
		w.disconnect(err)
		return
	}
	w.pending = w.pending[:0]
}

// expire drops lines past their TTL and caps the backlog at the queue size.
func (w *LogstashWriter) expire() {
	cutoff := time.Now().Add(-logstashEventTTL)
	keep := w.pending[:0]
	for _, l := range w.pending {
		if l.at.Before(cutoff) {
			w.dropped.Add(1)
			continue
		}
		keep = append(keep, l)
	}
	if over := len(keep) - logstashQueueSize; over > 0 {
		w.dropped.Add(uint64(over))
		keep = keep[over:]
	}
	w.pending = keep
}

func (w *LogstashWriter) ensureConn() bool {
	if w.conn != nil {
		return true
	}
	if time.Now().Before(w.retryAt) {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), logstashDialTimeout)
	defer cancel()
	conn, err := w.dial(ctx, "tcp", w.addr)
	if err != nil {
		w.disconnect(err)
		return false
	}

	w.conn = conn
	w.backoff = 0
	if !w.connected {
		w.connected = true
		w.report(slog.LevelInfo, fmt.Sprintf("Logstash connection established to %s", w.addr), nil)
	}
	return true
}

func (w *LogstashWriter) disconnect(err error) {
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	switch {
	case w.backoff == 0:
		w.backoff = time.Second
	case w.backoff*2 > logstashMaxBackoff:
		w.backoff = logstashMaxBackoff
	default:
		w.backoff *= 2
	}
	w.retryAt = time.Now().Add(w.backoff)

	if w.connected || w.backoff == time.Second {
		w.connected = false
		w.report(slog.LevelWarn, fmt.Sprintf("Logstash unavailable at %s, retrying in %s", w.addr, w.backoff), err)
	}
}

func (w *LogstashWriter) report(level slog.Level, msg string, err error) {
	if w.status == nil {
		return
	}
	if err != nil {
		w.status.Log(context.Background(), level, msg, "error", err.Error())
		return
	}
	w.status.Log(context.Background(), level, msg)
}
