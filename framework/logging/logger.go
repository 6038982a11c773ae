// Package logging builds the zap logger the application and its container
// write to.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-boot/framework/config"
)

// ParseLevel maps a LOG_LEVEL value onto a zap level. Unknown names fall
// back to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

// New builds a logger from cfg. Production or json format gets the zap
// production encoder, everything else the development console encoder.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if config.NormalizeEnv(cfg.App.Env) == "production" || strings.EqualFold(cfg.Log.Format, "json") {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Log.Level))

	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "logging: build logger")
	}
	return logger.Named(cfg.App.Name), nil
}
