package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunebox/internal/formatter"
	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints the user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.resolve(ctx); err != nil {
		return err
	}
	if err := r.playlists.FetchAll(ctx); err != nil {
		return err
	}

	playlists := r.playlists.Playlists()

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists found\n")
	}

	for _, pl := range playlists {
		line := fmt.Sprintf("%s  %s", pl.ID, pl.Name)
		if pl.Description != "" {
			line = fmt.Sprintf("%s - %s", line, pl.Description)
		}
		r.writePlain("%s\n", line)
	}
	return r.writePlain("\n%s\n", shared.FormatCount(len(playlists), "playlist"))
}

// PlaylistsCreate creates a new playlist.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")

	if err := r.resolve(ctx); err != nil {
		return err
	}

	id, err := r.playlists.Create(ctx, name, cmd.String("description"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created playlist %q (%s)\n", name, id)
}

// PlaylistsUpdate applies a partial update to a playlist.
func (r *Runner) PlaylistsUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}

	if err := r.resolve(ctx); err != nil {
		return err
	}
	if err := r.playlists.FetchAll(ctx); err != nil {
		return err
	}

	var patch models.PlaylistPatch
	if cmd.IsSet("name") {
		v := cmd.String("name")
		patch.Name = &v
	}
	if cmd.IsSet("description") {
		v := cmd.String("description")
		patch.Description = &v
	}

	if err := r.playlists.Update(ctx, id, patch); err != nil {
		return err
	}
	return r.writePlain("✓ Updated playlist %s\n", id)
}

// PlaylistsDelete removes a playlist; membership rows go with it.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}

	if err := r.resolve(ctx); err != nil {
		return err
	}
	if err := r.playlists.FetchAll(ctx); err != nil {
		return err
	}

	if err := r.playlists.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted playlist %s\n", id)
}

// PlaylistsShow prints the songs in one playlist.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}

	if err := r.resolve(ctx); err != nil {
		return err
	}

	songs, err := r.playlists.GetSongs(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		return r.writePlain("Playlist is empty\n")
	}

	for i, song := range songs {
		r.writePlain("%d. %s - %s [%s]\n", i+1, song.Artist, song.Title, song.Duration)
	}
	return r.writePlain("\n%s\n", shared.FormatCount(len(songs), "song"))
}

// PlaylistsAddSong adds one song to a playlist. Adding a song that is
// already present is reported but not an error.
func (r *Runner) PlaylistsAddSong(ctx context.Context, cmd *cli.Command) error {
	if err := r.resolve(ctx); err != nil {
		return err
	}
	return r.playlists.AddSong(ctx, cmd.String("playlist-id"), cmd.String("song-id"))
}

// PlaylistsRemoveSong removes one song from a playlist.
func (r *Runner) PlaylistsRemoveSong(ctx context.Context, cmd *cli.Command) error {
	if err := r.resolve(ctx); err != nil {
		return err
	}
	return r.playlists.RemoveSong(ctx, cmd.String("playlist-id"), cmd.String("song-id"))
}

// PlaylistsExport resolves a playlist's songs and writes them in the
// requested format.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}

	if err := r.resolve(ctx); err != nil {
		return err
	}
	if err := r.playlists.FetchAll(ctx); err != nil {
		return err
	}

	var playlist *models.Playlist
	for _, pl := range r.playlists.Playlists() {
		if pl.ID == id {
			playlist = &pl
			break
		}
	}
	if playlist == nil {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}

	songs, err := r.playlists.GetSongs(ctx, id)
	if err != nil {
		return err
	}

	export := &formatter.PlaylistExport{Playlist: *playlist, Songs: songs}
	output := cmd.String("output")

	switch cmd.String("format") {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s and %s\n", result.SongsFile, result.MetadataFile)
	case "markdown", "md":
		file, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s\n", file)
	case "text", "txt":
		file, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s\n", file)
	case "json":
		file, err := formatter.WriteJSONExport(export, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s\n", file)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, cmd.String("format"))
	}
}
