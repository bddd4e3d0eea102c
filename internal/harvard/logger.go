package harvard

import "github.com/artifact-explorer/artifact-explorer/internal/logger"

func getLogger() logger.Logger {
	return logger.Global().Module("harvard")
}
