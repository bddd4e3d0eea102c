package observability

import "github.com/artifact-explorer/artifact-explorer/internal/logger"

func getLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// promLogger adapts the module logger to promhttp.Logger.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	getLogger().Error("metrics handler error", logger.Any("detail", v))
}
