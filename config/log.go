package config

import "github.com/lone-faerie/smsgateway/log"

// LogConfig is the configuration of the bootstrap's own logging. Level is
// also exported to the gateway application as LOG_LEVEL.
type LogConfig struct {
	// Level is the minimum level logged. The default value is "info".
	Level log.Level `yaml:"level"`
	// Output is one of "stdout" (default), "stderr", "discard" or a file
	// path, which is appended to.
	Output string `yaml:"output"`
	// Format is one of "text" (default) or "json".
	Format string `yaml:"format"`
}

var DefaultLog = LogConfig{
	Level:  log.LevelInfo,
	Output: "stdout",
	Format: "text",
}
