package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// SongsList prints the song library, optionally narrowed by filter flags.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.resolve(ctx); err != nil {
		return err
	}
	if err := r.songs.FetchAll(ctx); err != nil {
		return err
	}

	r.songs.SetFilter(models.Filter{
		Artist: cmd.String("artist"),
		Album:  cmd.String("album"),
		Genre:  cmd.String("genre"),
	})

	songs := r.songs.FilteredSongs()

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		return r.writePlain("No songs found\n")
	}

	for _, song := range songs {
		line := fmt.Sprintf("%s  %s - %s (%s) [%s]", song.ID, song.Artist, song.Title, song.Album, song.Duration)
		if song.Rating != nil {
			line = fmt.Sprintf("%s %d/5", line, *song.Rating)
		}
		r.writePlain("%s\n", line)
	}
	return r.writePlain("\n%s\n", shared.FormatCount(len(songs), "song"))
}

// SongsAdd validates and creates a song, uploading an audio file first when
// one is provided.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.resolve(ctx); err != nil {
		return err
	}

	draft := models.SongDraft{
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Album:    cmd.String("album"),
		Genre:    cmd.String("genre"),
		Duration: cmd.String("duration"),
	}
	if rating := int(cmd.Int("rating")); rating >= 0 {
		draft.Rating = &rating
	}

	if audioPath := cmd.String("audio"); audioPath != "" {
		if r.uploader == nil {
			return fmt.Errorf("%w: storage is not configured", shared.ErrBucketMissing)
		}

		file, err := os.Open(audioPath)
		if err != nil {
			return fmt.Errorf("failed to open audio file: %w", err)
		}
		defer file.Close()

		url, err := r.uploader.UploadAudio(ctx, filepath.Base(audioPath), audioContentType(audioPath), file)
		if err != nil {
			return err
		}
		draft.AudioPath = url
	}

	created, err := r.songs.Add(ctx, draft)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Added %s - %s (%s)\n", created.Artist, created.Title, created.ID)
}

// SongsUpdate applies a partial update built from the provided flags.
func (r *Runner) SongsUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidArgument)
	}

	if err := r.resolve(ctx); err != nil {
		return err
	}
	if err := r.songs.FetchAll(ctx); err != nil {
		return err
	}

	var patch models.SongPatch
	if cmd.IsSet("title") {
		v := cmd.String("title")
		patch.Title = &v
	}
	if cmd.IsSet("artist") {
		v := cmd.String("artist")
		patch.Artist = &v
	}
	if cmd.IsSet("album") {
		v := cmd.String("album")
		patch.Album = &v
	}
	if cmd.IsSet("genre") {
		v := cmd.String("genre")
		patch.Genre = &v
	}
	if cmd.IsSet("duration") {
		v := cmd.String("duration")
		patch.Duration = &v
	}
	if cmd.IsSet("rating") {
		v := int(cmd.Int("rating"))
		patch.Rating = &v
	}

	if err := r.songs.Update(ctx, id, patch); err != nil {
		return err
	}
	return r.writePlain("✓ Updated song %s\n", id)
}

// SongsDelete removes a song from the library.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidArgument)
	}

	if err := r.resolve(ctx); err != nil {
		return err
	}
	if err := r.songs.FetchAll(ctx); err != nil {
		return err
	}

	if err := r.songs.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted song %s\n", id)
}

// audioContentType resolves a declared media type from the file extension.
func audioContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	default:
		return mime.TypeByExtension(filepath.Ext(path))
	}
}
