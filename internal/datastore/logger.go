package datastore

import (
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/artifact-explorer/artifact-explorer/internal/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

func getLogger() logger.Logger {
	return logger.Global().Module("datastore")
}

// createGormLogger routes GORM output through the datastore module logger.
func createGormLogger() gormlogger.Interface {
	return logger.NewGormLoggerAdapter(getLogger().Module("gorm"), slowQueryThreshold)
}
