package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	identity := services.NewTokenIdentityProvider(config.Credentials, nil, logger)
	if err := identity.Load(context.Background()); err != nil {
		logger.Warn("could not restore session", "error", err)
	}

	var store services.Store
	if config.Backend.BaseURL != "" {
		store = services.NewRESTStore(
			config.Backend.BaseURL,
			config.Backend.AnonKey,
			nil,
			config.Backend.Rate,
			sessionToken(identity),
		)
	} else if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		store = services.NewSQLiteStore(db)
	} else {
		logger.Warn("local database unavailable, run 'tunebox setup database'", "error", err)
	}

	var blobs services.BlobStore
	if config.Storage.BaseURL != "" {
		blobs = services.NewHTTPBlobStore(
			config.Storage.BaseURL,
			config.Storage.Bucket,
			config.Backend.AnonKey,
			nil,
			sessionToken(identity),
		)
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Identity: identity,
		Store:    store,
		Blobs:    blobs,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "tunebox",
		Usage:    "Manage a synchronized song library and playlists",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// sessionToken exposes the current access token to HTTP backends.
func sessionToken(identity services.IdentityProvider) func() string {
	return func() string {
		session, err := identity.Current(context.Background())
		if err != nil || session == nil {
			return ""
		}
		return session.AccessToken
	}
}
