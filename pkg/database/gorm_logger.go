package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/itemsapi/pkg/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger routes gorm's own messages into slog. Query failures are logged
// at DEBUG and slow queries at WARN. With verbose set every statement is
// traced at DEBUG.
type GormLogger struct {
	log     *slog.Logger
	level   gormlogger.LogLevel
	verbose bool
}

// NewGormLogger returns a gorm logger writing to log. A nil log means
// slog.Default().
func NewGormLogger(log *slog.Logger, verbose bool) *GormLogger {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	return &GormLogger{log: log, level: level, verbose: verbose}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *g
	next.level = level
	return &next
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.logger(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.logger(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.logger(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	log := g.logger(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		log.Debug("Query failed", "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds(), "error", err.Error())
	case elapsed > slowQueryThreshold:
		sql, rows := fc()
		log.Warn("Slow query", "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds())
	case g.verbose && g.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debug("Query", "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds())
	}
}

// logger prefers the request-scoped logger so query lines carry request_id.
func (g *GormLogger) logger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l := logger.WithCtx(ctx); l != slog.Default() || g.log == nil {
			return l
		}
	}
	if g.log != nil {
		return g.log
	}
	return slog.Default()
}
