package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel string            `yaml:"default_level" mapstructure:"level"`   // default log level for all modules
	Timezone     string            `yaml:"timezone" mapstructure:"timezone"`     // "Local", "UTC" or an IANA name
	Format       string            `yaml:"format" mapstructure:"format"`         // console format: text or json
	Console      *ConsoleOutput    `yaml:"console" mapstructure:"console"`       // console output configuration
	FileOutput   *FileOutput       `yaml:"file_output" mapstructure:"file"`      // file output configuration
	ModuleLevels map[string]string `yaml:"module_levels" mapstructure:"modules"` // per-module log levels
}

// ConsoleOutput represents console logging configuration.
// Console output omits timestamps; the execution environment adds them.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Level   string `yaml:"level" mapstructure:"level"`
}

// FileOutput represents file logging configuration. File output is JSON.
type FileOutput struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
	Level   string `yaml:"level" mapstructure:"level"`
}

const (
	DefaultLogLevel = "info"
	DefaultLogPath  = "logs/artifact-explorer.log"
	FormatText      = "text"
	FormatJSON      = "json"
)

// applyConfigDefaults fills nil sections: console on, file output off
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg == nil {
		return
	}

	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = FormatText
	}

	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{Enabled: true, Level: cfg.DefaultLevel}
	}
	if cfg.Console.Level == "" {
		cfg.Console.Level = cfg.DefaultLevel
	}

	if cfg.FileOutput == nil {
		cfg.FileOutput = &FileOutput{Path: DefaultLogPath, Level: cfg.DefaultLevel}
	}
	if cfg.FileOutput.Path == "" {
		cfg.FileOutput.Path = DefaultLogPath
	}
	if cfg.FileOutput.Level == "" {
		cfg.FileOutput.Level = cfg.DefaultLevel
	}

	if cfg.ModuleLevels == nil {
		cfg.ModuleLevels = make(map[string]string)
	}
}
