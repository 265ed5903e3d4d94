package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/teller/internal/cli"
	"github.com/aretw0/teller/internal/config"
	"github.com/aretw0/teller/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teller",
	Short: "Teller is a conversational banking assistant",
	Long: `Teller answers customer messages about balances, transactions, cards,
loans and credit limits. It keeps per-session dialogue state, runs loan and
limit applications step by step and can fall back to an OpenAI-compatible
model for free-form questions.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "Environment files to read before TELLER_* variables")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides TELLER_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (overrides TELLER_LOG_FORMAT)")
	rootCmd.PersistentFlags().String("store", "", "Storage backend: memory, file, redis, sqlite (overrides TELLER_STORE)")
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, err
	}

	overrides := map[string]*string{
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
		"store":      &cfg.Store,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(level, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openApp loads the configuration and builds the assistant.
func openApp(cmd *cobra.Command) (*cli.App, *config.Config, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	app, err := cli.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, cfg, logger, nil
}
