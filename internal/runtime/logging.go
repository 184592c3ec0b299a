package runtime

import (
	"io"
	"log/slog"
	"os"
	"sync"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	loggerOnce sync.Once
	logger     *slog.Logger
)

// InitLogging configures the process-wide slog default exactly once,
// guarded by an initialization flag (§5 "Log handlers are singletons guarded
// by an initialization flag"). logFileName selects LOG_FILE_NAME's rotating
// log file; an empty name logs to stderr only.
func InitLogging(logFileName string) *slog.Logger {
	loggerOnce.Do(func() {
		var w io.Writer = os.Stderr
		if logFileName != "" {
			w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   logFileName,
				MaxSize:    100, // megabytes
				MaxBackups: 5,
				MaxAge:     28, // days
				Compress:   true,
			})
		}
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)
	})
	return logger
}

// Logger returns the process logger, initializing it with stderr-only
// output if InitLogging was never called.
func Logger() *slog.Logger {
	if logger == nil {
		return InitLogging("")
	}
	return logger
}
