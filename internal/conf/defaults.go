// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultClassifications are the classifications offered for import.
var DefaultClassifications = []string{"Paintings", "Sculpture", "Drawings", "Fragments", "Photographs"}

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("harvard.baseurl", "https://api.harvardartmuseums.org")
	viper.SetDefault("harvard.defaultpages", 25)
	viper.SetDefault("harvard.timeout", 30*time.Second)
	viper.SetDefault("harvard.ratelimitms", 200)
	viper.SetDefault("harvard.cachettl", time.Hour)

	viper.SetDefault("import.classifications", DefaultClassifications)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "artifacts.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
	viper.SetDefault("output.mysql.database", "artifacts")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.file.enabled", false)
	viper.SetDefault("logging.file.path", "logs/artifact-explorer.log")

	viper.SetDefault("sentry.enabled", false)

	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.readtimeout", 30*time.Second)
	viper.SetDefault("webserver.writetimeout", 5*time.Minute)
}
