package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase opens the configured SQLite database, creates it if missing,
// and runs pending migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := shared.LoadConfig(path)
			if err != nil {
				return err
			}
			config = loaded
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}

// SetupConfig writes a starter config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("✓ Created %s, edit it to point at your backend\n", path)
}

// SetupStorage checks the audio bucket is reachable with the configured
// credentials.
func (r *Runner) SetupStorage(ctx context.Context, cmd *cli.Command) error {
	if r.blobs == nil {
		return fmt.Errorf("%w: storage is not configured", shared.ErrBucketMissing)
	}

	if err := r.blobs.Verify(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Storage bucket %q is reachable\n", r.config.Storage.Bucket)
}

// SetupSeed populates the library with a small demo catalog.
func (r *Runner) SetupSeed(ctx context.Context, cmd *cli.Command) error {
	if err := r.resolve(ctx); err != nil {
		return err
	}

	drafts := []models.SongDraft{
		{Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", Genre: "Rock", Duration: "5:55"},
		{Title: "Hotel California", Artist: "Eagles", Album: "Hotel California", Genre: "Rock", Duration: "6:30"},
		{Title: "Take Five", Artist: "Dave Brubeck", Album: "Time Out", Genre: "Jazz", Duration: "5:24"},
		{Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue", Genre: "Jazz", Duration: "9:22"},
	}

	for _, draft := range drafts {
		song, err := r.songs.Add(ctx, draft)
		if err != nil {
			return fmt.Errorf("failed to seed %q: %w", draft.Title, err)
		}
		r.logger.Debug("seeded song", "id", song.ID, "title", song.Title)
	}

	return r.writePlain("✓ Seeded %s\n", shared.FormatCount(len(drafts), "song"))
}
