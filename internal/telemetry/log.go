// Package telemetry holds the logging and metrics wiring shared by every
// gridconverge binary. Logging wraps go.uber.org/zap behind a logr.Logger,
// mirroring the teacher's own pkg/management/log (referenced throughout
// cmd/manager/main.go and internal/cmd/manager/controller/controller.go,
// rebuilt here since only its call sites, not its source, were present in
// the retrieval pack).
package telemetry

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process-wide logr.Logger, honoring the requested
// level ("error", "warning", "info", "debug", "trace") and writing
// structured JSON to stderr.
func NewLogger(name, level string) logr.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.Lock(os.Stderr),
		zapLevel(level),
	)

	zl := zap.New(core, zap.AddCaller())
	return zapr.NewLogger(zl).WithName(name)
}

// zapLevel maps gridconverge's own level names onto zapcore levels. "trace"
// and "debug" both map to zap's Debug level: zap has no finer-grained
// level and the distinction is not load-bearing for this system.
func zapLevel(level string) zapcore.Level {
	switch level {
	case "error":
		return zapcore.ErrorLevel
	case "warning":
		return zapcore.WarnLevel
	case "debug", "trace":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	default:
		return zapcore.InfoLevel
	}
}
