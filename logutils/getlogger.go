package logutils

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerConfig struct {
	devMode bool
	level   string
	output  io.Writer
}

// LogConfigOption allows to fine-tune the configuration of the logger.
type LogConfigOption = func(*loggerConfig)

// LogDevMode tells the logger to work in the development mode.
func LogDevMode(devMode bool) LogConfigOption {
	return func(lc *loggerConfig) {
		lc.devMode = devMode
	}
}

// LogLevel sets the desired level of logging.
func LogLevel(level string) LogConfigOption {
	return func(lc *loggerConfig) {
		lc.level = level
	}
}

// LogOutput redirects the logger away from stderr.
func LogOutput(w io.Writer) LogConfigOption {
	return func(lc *loggerConfig) {
		lc.output = w
	}
}

// GetZapLogger returns a logger created according to the options. Invalid
// levels fall back to info and are reported through the returned logger.
func GetZapLogger(options ...LogConfigOption) *zap.Logger {
	cfg := &loggerConfig{
		devMode: false,
		level:   zap.InfoLevel.String(),
	}

	for _, o := range options {
		o(cfg)
	}

	var config zap.Config
	if cfg.devMode {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, levelErr := zap.ParseAtomicLevel(cfg.level)
	if levelErr != nil {
		level = zap.NewAtomicLevel()
	}
	config.Level = level

	var (
		l        *zap.Logger
		buildErr error
	)
	if cfg.output != nil {
		l = buildWithWriter(config, cfg.output)
	} else {
		l, buildErr = config.Build()
		if buildErr != nil {
			l = zap.L()
		}
	}

	if levelErr != nil {
		valid := "'" + strings.Join(Levels, "', '") + "'"
		l.Warn(
			fmt.Sprintf("Invalid log-level was specified (defaulted to '%s', valid levels are: %s)", config.Level.String(), valid),
			zap.Error(levelErr),
		)
	}
	if buildErr != nil {
		l.Error("Failed to build the logger with desired configuration",
			zap.Error(buildErr),
		)
	}

	return l
}

func buildWithWriter(config zap.Config, w io.Writer) *zap.Logger {
	var encoder zapcore.Encoder
	if config.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(config.EncoderConfig)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), config.Level)
	return zap.New(core)
}
