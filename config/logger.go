package config

import (
	"go.uber.org/zap"
)

// Log is the process-wide structured logger, SLog its sugared form.
var (
	Log  *zap.Logger
	SLog *zap.SugaredLogger
)

func InitLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	Log = logger
	SLog = logger.Sugar()
	return nil
}

func init() {
	// Keep the loggers usable before InitLogger runs (tests, tooling).
	Log = zap.NewNop()
	SLog = Log.Sugar()
}
