package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/keyvote/internal/app"
	"github.com/vncsmyrnk/keyvote/internal/config"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

var rootCmd = &cobra.Command{
	Use:   "ballotctl",
	Short: "Administer the voting store directly",
	Long: `ballotctl runs administrative operations against the configured store
without going through the HTTP API. With DATABASE_DRIVER=file, stop the
server first: it keeps the dataset in memory and would overwrite changes.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(ports.Store) error) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	slog.SetDefault(config.NewLogger(os.Stderr, cfg.LogLevel(), "text"))

	store, closeFn, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(store)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
