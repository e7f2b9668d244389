// Package logging sets up the process-wide zap logger, generalizing the
// teacher's own cmd/gate initLogger to this proxy's --verbose/-v flag.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init configures and installs the global zap logger. verbose selects
// the development config (debug level, stack traces); otherwise
// production defaults (info level) are used. Both use the console
// encoder with colorized levels and ISO8601 timestamps, matching the
// teacher's own banner style.
func Init(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}
