package app

import (
	"context"

	"github.com/oshokin/fetchchain/internal/config"
	"github.com/oshokin/fetchchain/internal/logger"
)

// ExecuteInitConfigCommand writes a configuration file with default values.
func ExecuteInitConfigCommand(ctx context.Context, configFilename string) {
	if configFilename == "" {
		configFilename = config.DefaultConfigFilename
	}

	if err := config.SaveConfig(config.Default(), configFilename); err != nil {
		logger.Fatalf(ctx, "Failed to save configuration: %v", err)
		return
	}

	logger.Infof(ctx, "Configuration written to '%s'", configFilename)
	logger.Info(ctx, "Set base_url there to call APIs with relative paths:")
	logger.Info(ctx, "fetchchain get /users --as json --select '$.0.name'")
}
