// Package logger provides the service's structured logger built on log/slog.
//
// Every record is a JSON object carrying fixed metadata (timestamp, level,
// environment, service, logger, module, function, line) and is optionally
// forwarded to a remote collector without ever blocking the caller.
//
// Request handlers log through WithCtx so the request_id is attached:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("Item created", "item_id", item.ID)
//	// → {"timestamp":"...","level":"INFO","message":"Item created","request_id":"...","item_id":1,...}
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shashiranjanraj/itemsapi/config"
)

// Name is the value of the "logger" field on every record.
const Name = "itemsapi"

// LevelCritical sits above ERROR for LOG_LEVEL=CRITICAL.
const LevelCritical = slog.Level(12)

// ParseLevel maps LOG_LEVEL names onto slog levels. Unknown names mean INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	case "CRITICAL", "FATAL":
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

func levelName(l slog.Level) string {
	switch {
	case l >= LevelCritical:
		return "CRITICAL"
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// HandlerOptions renames the built-in keys to timestamp/level/message and
// renders the timestamp in UTC with a trailing Z.
func HandlerOptions(level slog.Leveler) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("timestamp", a.Value.Time().UTC().Format("2006-01-02T15:04:05.000000Z"))
			case slog.LevelKey:
				if l, ok := a.Value.Any().(slog.Level); ok {
					return slog.String("level", levelName(l))
				}
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	}
}

// New builds the service logger from cfg. Records are written to out as JSON
// lines and, depending on cfg.LogSink, forwarded to Logstash or MongoDB.
// The returned func flushes and closes the remote sink.
func New(cfg *config.Config, out io.Writer) (*slog.Logger, func()) {
	level := ParseLevel(cfg.LogLevel)
	opts := HandlerOptions(level)
	console := slog.NewJSONHandler(out, opts)
	local := slog.New(NewFieldsHandler(console, cfg.Environment, cfg.ServiceName, Name))

	var (
		remote  slog.Handler
		closeFn = func() {}
	)

	switch cfg.LogSink {
	case config.SinkLogstash:
		w := NewLogstashWriter(cfg.LogstashAddr(), local)
		remote = slog.NewJSONHandler(w, opts)
		closeFn = w.Close
	case config.SinkMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h, err := NewMongoHandler(ctx, cfg.MongoLogURI(), cfg.LogMongoDatabase, cfg.LogMongoCollection)
		if err != nil {
			local.Warn(fmt.Sprintf("Could not connect to MongoDB log sink: %v. Logging to console only.", err))
			return local, closeFn
		}
		remote = h
		closeFn = h.Close
	default:
		return local, closeFn
	}

	log := slog.New(NewFieldsHandler(NewMultiHandler(console, remote), cfg.Environment, cfg.ServiceName, Name))
	switch cfg.LogSink {
	case config.SinkLogstash:
		log.Info(fmt.Sprintf("Logstash handler connected to %s", cfg.LogstashAddr()))
	case config.SinkMongo:
		log.Info(fmt.Sprintf("MongoDB log handler connected to %s.%s", cfg.LogMongoDatabase, cfg.LogMongoCollection))
	}
	return log, closeFn
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the request logger stored by the lifecycle middleware, or
// slog.Default() when ctx carries none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return slog.Default()
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}
