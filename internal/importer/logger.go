package importer

import "github.com/artifact-explorer/artifact-explorer/internal/logger"

func getLogger() logger.Logger {
	return logger.Global().Module("importer")
}
