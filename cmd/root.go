// Package cmd wires the command line interface: one-off runs, batch fan-out
// and fixture listings, all sharing the YAML configuration and the
// configured persistence backend.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/willpenman/llm-philosophy/internal/config"
	"github.com/willpenman/llm-philosophy/store"
	"github.com/willpenman/llm-philosophy/store/s3blob"
)

const (
	AppName = "llm-philosophy"
	Version = "0.3.0"
)

var (
	cfgPath string
	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:               AppName,
	Short:             "Run philosophy puzzles against LLM providers",
	Long:              `Sends philosophy puzzle fixtures to OpenAI, Anthropic, Gemini, Grok and Fireworks models, reconstructs streamed responses, prices token usage and records transcripts.`,
	Version:           Version,
	PersistentPreRunE: initRoot,
	SilenceUsage:      true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config (default ./"+config.DefaultFilename+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(puzzlesCmd)
}

func initRoot(*cobra.Command, []string) error {
	// Missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	loaded, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// openStore builds the configured persistence backend. The returned closer
// releases any underlying connection and is safe to call once.
func openStore(ctx context.Context) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case config.BackendFile:
		return store.NewFileStore(cfg.Paths.ResponsesDir), noop, nil

	case config.BackendPostgres:
		db, err := store.OpenPostgres(ctx, cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		pg, err := store.NewPostgresStore(db, cfg.Store.Postgres.Table, true)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return pg, db.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
		return store.NewRedisStore(client, cfg.Store.Redis.Prefix), client.Close, nil

	case config.BackendS3:
		blobs, err := s3blob.NewFromConfig(ctx, cfg.Store.S3.Bucket, "", cfg.Store.S3.Region)
		if err != nil {
			return nil, nil, err
		}
		return store.NewS3Store(blobs, cfg.Store.S3.Prefix), noop, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
