package log

// Config is the configuration struct for the log package.
//
// Can be deserialized from YAML.
type Config struct {
	// Level is the log level you want to set your tool to.
	Level Level `yaml:"level"`

	// Console switches from json logs to the human readable console format.
	Console bool `yaml:"console"`
}

// InitFromConfig initializes the log package using the given Config.
func InitFromConfig(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = InfoLevel
	}
	if cfg.Console {
		InitLogger(cfg.Level)
		return
	}
	InitLoggerJSON(cfg.Level)
}
