package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxLoggedSQL = 2048

// queryLogger routes gorm output through the service logger so query logs carry
// the request fields attached to ctx. Only failed and slow statements are logged
// unless the level is raised to Info.
type queryLogger struct {
	logg          *logger.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newQueryLogger(logg *logger.Logger, slowThreshold time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &queryLogger{logg: logg, level: gormlogger.Warn, slowThreshold: slowThreshold}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.logg.Debug(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.logg.Error(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	fields := func() context.Context {
		sql, rows := fc()
		if len(sql) > maxLoggedSQL {
			sql = sql[:maxLoggedSQL] + "..."
		}
		return q.logg.WithFields(ctx, map[string]any{
			"sql":         sql,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		})
	}

	switch {
	// not-found and lock waits are handled by callers
	case err != nil && q.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound) && !IsLockContention(err):
		q.logg.Error(fields(), "db.query_failed", err)
	case q.slowThreshold > 0 && elapsed > q.slowThreshold && q.level >= gormlogger.Warn:
		q.logg.Warn(fields(), "db.slow_query")
	case q.level >= gormlogger.Info:
		q.logg.Debug(fields(), "db.query")
	}
}
