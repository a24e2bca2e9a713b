package cli

import (
	"context"

	"go.uber.org/zap"

	"github.com/medisync/medisync/internal/app"
	"github.com/medisync/medisync/internal/config"
	"github.com/medisync/medisync/internal/logging"
)

// withApp bootstraps the data layer for one command invocation and tears
// it down afterwards.
func withApp(opts *RootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, log, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return WrapExitError(ExitFailure, "initialize data layer", err)
	}
	defer a.Close()

	return fn(ctx, a)
}

// bootstrap loads configuration and builds the logger.
func bootstrap(opts *RootOptions) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "load configuration", err)
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log, err := logging.New(level)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "build logger", err)
	}

	return cfg, log, nil
}
