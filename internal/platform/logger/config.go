package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds configuration for the logger.
type LoggerConfig struct {
	Level      string
	Format     string
	OutputFile string
}

// NewConfig normalises the raw values coming from the application config.
func NewConfig(level, format, outputFile string) *LoggerConfig {
	cfg := &LoggerConfig{
		Level:      strings.ToLower(strings.TrimSpace(level)),
		Format:     strings.ToLower(strings.TrimSpace(format)),
		OutputFile: strings.TrimSpace(outputFile),
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = "stdout"
	}
	return cfg
}

// ToZapLevel converts the string log level to zapcore.Level.
func (c *LoggerConfig) ToZapLevel() zapcore.Level {
	switch c.Level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (c *LoggerConfig) console() bool {
	return c.Format == "console" || c.Format == "text"
}
