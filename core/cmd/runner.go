// Package cmd hosts the reusable bot entrypoint: config loading, bootstrap,
// and the Telegram runtime with signal-driven shutdown.
package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/m3rciful/dialogbot/core/bootstrap"
	coreconfig "github.com/m3rciful/dialogbot/core/config"
	"github.com/m3rciful/dialogbot/core/dialog"
	"github.com/m3rciful/dialogbot/core/logger"
	coretelegram "github.com/m3rciful/dialogbot/core/telegram"
)

// Options describe how to load configuration and assemble the bot.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	// States registers the application's states into the registry. The
	// start state must be registered.
	States func(reg *dialog.Registry)

	// Commands maps extra slash commands to states, on top of "/start".
	Commands map[string]string

	SkipMigrations bool
}

// Run loads configuration, bootstraps the engine, and starts the Telegram
// runtime. It blocks until the process receives SIGINT or SIGTERM.
func Run(opts Options) error {
	// .env is optional; real deployments pass env directly.
	_ = godotenv.Load()

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	startedAt := time.Now()
	result, err := bootstrap.Run(bootstrap.Options{
		Config:         cfg,
		States:         opts.States,
		SkipMigrations: opts.SkipMigrations,
	})
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error(logger.Background(), "app", "shutdown",
				slog.String("err", err.Error()),
			)
		}
	}()

	logger.Info(logger.Background(), "app", "ready",
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return coretelegram.Run(ctx, coretelegram.RunOptions{
		Config:     cfg,
		Dispatcher: result.Dispatcher,
		Commands:   opts.Commands,
		OnStop: func(context.Context) error {
			logger.Info(logger.Background(), "app", "shutdown")
			return nil
		},
	})
}
