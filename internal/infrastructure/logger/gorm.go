package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts zap to gorm's logger interface. Statements are logged
// with the request and trace fields of the calling context.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewGormLogger returns a gorm logger writing to log under the "gorm" name.
// slow is the slow statement threshold; zero turns the warning off.
func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel, slow time.Duration) *GormLogger {
	return &GormLogger{log: log.Named("gorm"), level: level, slow: slow}
}

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
	"debug":  gormlogger.Info,
}

// MapGormLogLevel translates the configured level name. Unknown names map to Warn.
func MapGormLogLevel(name string) gormlogger.LogLevel {
	if level, ok := gormLevels[name]; ok {
		return level
	}
	return gormlogger.Warn
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{log: l.log, level: level, slow: l.slow}
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.enabled(gormlogger.Info) {
		Enrich(ctx, l.log).Sugar().Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.enabled(gormlogger.Warn) {
		Enrich(ctx, l.log).Sugar().Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.enabled(gormlogger.Error) {
		Enrich(ctx, l.log).Sugar().Errorf(msg, args...)
	}
}

// Trace logs one executed statement. Missing rows and unique violations are
// answered by the repositories themselves and stay quiet.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if !l.enabled(gormlogger.Error) {
		return
	}
	took := time.Since(begin)

	var (
		msg   string
		level = zap.DebugLevel
		extra []zap.Field
	)
	switch {
	case err != nil:
		if expectedSQLError(err) {
			return
		}
		msg, level, extra = "SQL Error", zap.ErrorLevel, []zap.Field{zap.Error(err)}
	case l.slow > 0 && took > l.slow && l.enabled(gormlogger.Warn):
		msg, level, extra = "Slow SQL", zap.WarnLevel, []zap.Field{zap.Duration("threshold", l.slow)}
	case l.enabled(gormlogger.Info):
		msg = "SQL Query"
	default:
		return
	}

	sql, rows := fc()
	fields := append([]zap.Field{zap.Duration("elapsed", took), zap.Int64("rows", rows), zap.String("sql", sql)}, extra...)
	if ce := Enrich(ctx, l.log).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *GormLogger) enabled(at gormlogger.LogLevel) bool { return l.level >= at }

func expectedSQLError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey)
}

var _ gormlogger.Interface = (*GormLogger)(nil)
