package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the service logger for the given environment. Local environments
// get the human-readable development config; everything else logs structured
// JSON at info level.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
