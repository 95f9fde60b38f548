package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/personas-api/internal/config"
	"github.com/aanand-mishra/personas-api/internal/logging"
	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/aanand-mishra/personas-api/internal/storage/backend"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "personas-cli",
	Short: "Import and export persona records from the command line",
	Long: `personas-cli applies the same validation as the HTTP service:
an import is rejected as a whole when any row has an empty, malformed or
duplicate correo_persona.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Ctrl+C cancels the running import or
// export.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the configuration YAML file (defaults to $CONFIG_PATH)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

// openStore loads the config and opens its store. The caller closes it.
func openStore(ctx context.Context) (*config.Config, storage.Storage, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	// CLI output goes to stdout; logs go to stderr.
	slog.SetDefault(logging.New(cfg.Env, os.Stderr))

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return cfg, store, nil
}
