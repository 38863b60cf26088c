package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rentalhub/internal/config"
	"rentalhub/internal/database"
	"rentalhub/internal/repository"
	"rentalhub/internal/seed"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		seedPath   = flag.String("seed", "", "YAML fixture to load instead of the configured seed")
		action     = flag.String("action", "reset", "init | reset | export")
		outPath    = flag.String("out", "", "file for the current document; export writes to stdout when empty")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *seedPath != "" {
		cfg.Storage.SeedFile = *seedPath
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = database.NewRedisClient(cfg.Redis)
		defer rdb.Close()
	}

	backend, err := database.OpenBackend(cfg.Storage, rdb, cfg.Redis, &logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := database.Open(ctx, backend, seed.Seeder(cfg.Storage.SeedFile), database.Options{Logger: &logger})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	switch *action {
	case "init":
		// Open already seeded the backend if it was empty.
	case "export":
		return exportDocument(ctx, store, *outPath, &logger)
	case "reset":
		if *outPath != "" {
			if err := exportDocument(ctx, store, *outPath, &logger); err != nil {
				return err
			}
		}
		if err := store.Reset(ctx); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
	default:
		return fmt.Errorf("unknown action %q", *action)
	}

	repos := repository.New(store)
	users, err := repos.Users.All(ctx)
	if err != nil {
		return err
	}
	products, err := repos.Products.All(ctx)
	if err != nil {
		return err
	}
	bookings, err := repos.Bookings.All(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Str("driver", cfg.Storage.Driver).
		Int("users", len(users)).
		Int("products", len(products)).
		Int("bookings", len(bookings)).
		Str("action", *action).
		Msg("store ready")
	return nil
}

func exportDocument(ctx context.Context, store *database.Store, path string, logger *zerolog.Logger) error {
	data, err := store.Export(ctx)
	if err != nil {
		return fmt.Errorf("export document: %w", err)
	}
	if path == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	logger.Info().Str("path", path).Int("bytes", len(data)).Msg("document exported")
	return nil
}
