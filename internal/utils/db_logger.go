package utils

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// Statements issued on every leaderboard request or reminder worker tick
var DefaultQuietQueries = []string{
	`FROM "daily_stat" WHERE user_id IN`,
	`FROM "settings" ORDER BY id ASC`,
}

// QueryLogger wraps a GORM logger. Statements matching a quiet pattern are
// dropped unless they fail or run longer than slowThreshold; the rest are
// tagged with the service or handler that issued them.
type QueryLogger struct {
	logger.Interface
	quiet         []string
	slowThreshold time.Duration
}

func NewQueryLogger(l logger.Interface, slowThreshold time.Duration, quiet ...string) *QueryLogger {
	return &QueryLogger{Interface: l, quiet: quiet, slowThreshold: slowThreshold}
}

// LogMode implements logger.Interface
func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &QueryLogger{
		Interface:     l.Interface.LogMode(level),
		quiet:         l.quiet,
		slowThreshold: l.slowThreshold,
	}
}

// Trace implements logger.Interface
func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	sql, rows := fc()
	if l.Suppressed(sql, time.Since(begin), err) {
		return
	}

	origin := queryOrigin()
	l.Interface.Trace(ctx, begin, func() (string, int64) {
		if origin == "" {
			return sql, rows
		}
		return fmt.Sprintf("[%s] %s", origin, sql), rows
	}, err)
}

// Suppressed reports whether a statement is dropped from the log
func (l *QueryLogger) Suppressed(sql string, elapsed time.Duration, err error) bool {
	if err != nil || (l.slowThreshold > 0 && elapsed >= l.slowThreshold) {
		return false
	}
	for _, pattern := range l.quiet {
		if strings.Contains(sql, pattern) {
			return true
		}
	}
	return false
}

// queryOrigin names the first services or handlers function on the stack,
// e.g. "services.(*Scheduler).Run"
func queryOrigin() string {
	pcs := make([]uintptr, 24)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if name := originName(frame.Function); name != "" {
			return name
		}
		if !more {
			return ""
		}
	}
}

func originName(function string) string {
	for _, pkg := range []string{"/internal/services.", "/internal/handlers."} {
		if idx := strings.Index(function, pkg); idx != -1 {
			return function[idx+len("/internal/"):]
		}
	}
	return ""
}
