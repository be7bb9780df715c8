// Package logger provides a context-carrying structured logger built on
// logrus. Components never hold a logger field; they pull a request- or
// session-scoped entry out of the context at each call site, the way the
// reference chat pipeline does with logger.GetLogger(ctx).
package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.InfoLevel)
}

// SetOutput redirects the base logger's output. Tests use this to capture
// output, or to silence it with io.Discard.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetLevel adjusts the base logger's verbosity.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// WithFields returns a context carrying a logger entry annotated with the
// given fields, merging with any fields already attached to ctx.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	entry := GetLogger(ctx).WithFields(fields)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// WithRequestID is a convenience wrapper for the common case of attaching a
// single correlation id (a request id, session id, or source id) to ctx.
func WithRequestID(ctx context.Context, key, id string) context.Context {
	return WithFields(ctx, logrus.Fields{key: id})
}

// GetLogger returns the logger entry attached to ctx, or the base logger
// wrapped in an entry if none is attached yet.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(base)
}

// CloneContext detaches a context's logger fields from ctx's deadline and
// cancellation, for logging that must survive the originating request's
// cancellation (e.g. fire-and-forget webhook replies).
func CloneContext(ctx context.Context) context.Context {
	return context.WithValue(context.Background(), ctxKey{}, GetLogger(ctx))
}

// Infof logs at info level against ctx's logger.
func Infof(ctx context.Context, format string, args ...interface{}) { GetLogger(ctx).Infof(format, args...) }

// Warnf logs at warn level against ctx's logger.
func Warnf(ctx context.Context, format string, args ...interface{}) { GetLogger(ctx).Warnf(format, args...) }

// Errorf logs at error level against ctx's logger.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Errorf(format, args...)
}

// Debugf logs at debug level against ctx's logger.
func Debugf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Debugf(format, args...)
}

// Info logs a message with structured key/value pairs, trailing args taken
// as alternating key, value.
func Info(ctx context.Context, msg string, kv ...interface{}) { logKV(ctx, "info", msg, kv) }

// Warn logs a message with structured key/value pairs at warn level.
func Warn(ctx context.Context, msg string, kv ...interface{}) { logKV(ctx, "warn", msg, kv) }

// Error logs a message with structured key/value pairs at error level.
func Error(ctx context.Context, msg string, kv ...interface{}) { logKV(ctx, "error", msg, kv) }

func logKV(ctx context.Context, level, msg string, kv []interface{}) {
	entry := GetLogger(ctx)
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	entry = entry.WithFields(fields)
	switch level {
	case "warn":
		entry.Warn(msg)
	case "error":
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}
