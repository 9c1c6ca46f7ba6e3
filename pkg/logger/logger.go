package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop().Sugar()
)

// Init builds the process logger. Anything other than "production" gets the
// human readable development encoder with debug level enabled.
func Init(environment string) {
	var (
		base *zap.Logger
		err  error
	)

	if environment == "production" {
		base, err = zap.NewProduction()
	} else {
		base, err = zap.NewDevelopment()
	}
	if err != nil {
		base = zap.NewExample()
	}

	mu.Lock()
	log = base.WithOptions(zap.AddCallerSkip(1)).Sugar()
	mu.Unlock()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(msg string, keysAndValues ...any) {
	current().Debugw(msg, normalize(keysAndValues)...)
}

func Info(msg string, keysAndValues ...any) {
	current().Infow(msg, normalize(keysAndValues)...)
}

func Warn(msg string, keysAndValues ...any) {
	current().Warnw(msg, normalize(keysAndValues)...)
}

func Error(msg string, keysAndValues ...any) {
	current().Errorw(msg, normalize(keysAndValues)...)
}

func Fatal(msg string, keysAndValues ...any) {
	current().Fatalw(msg, normalize(keysAndValues)...)
}

// Sync flushes buffered entries; call it before the process exits.
func Sync() {
	_ = current().Sync()
}

// normalize lets call sites pass a bare error (logger.Error("msg", err)).
func normalize(kv []any) []any {
	if len(kv) == 1 {
		if err, ok := kv[0].(error); ok {
			return []any{"error", err}
		}
		return []any{"detail", kv[0]}
	}
	return kv
}
