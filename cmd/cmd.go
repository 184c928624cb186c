// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// songsCommand handles song catalog operations
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"s"},
		Usage:   "Song catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs in the library",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Filter by artist substring",
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Filter by album substring",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Filter by genre substring",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SongsList,
			},
			{
				Name:  "add",
				Usage: "Add a song to the library",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Song title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "artist",
						Usage:    "Artist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "album",
						Usage:    "Album name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "genre",
						Usage:    "Genre",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "duration",
						Usage:    "Duration as minutes:seconds (e.g. 3:45)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "rating",
						Usage: "Rating from 0 to 5",
						Value: -1,
					},
					&cli.StringFlag{
						Name:  "audio",
						Usage: "Path to an audio file to upload",
					},
				},
				Action: r.SongsAdd,
			},
			{
				Name:  "update",
				Usage: "Update fields of a song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "artist", Usage: "New artist"},
					&cli.StringFlag{Name: "album", Usage: "New album"},
					&cli.StringFlag{Name: "genre", Usage: "New genre"},
					&cli.StringFlag{Name: "duration", Usage: "New duration (minutes:seconds)"},
					&cli.IntFlag{Name: "rating", Usage: "New rating from 0 to 5", Value: -1},
				},
				Action: r.SongsUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a song from the library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SongsDelete,
			},
		},
	}
}

// playlistsCommand handles playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "create",
				Usage: "Create a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
				},
				Action: r.PlaylistsCreate,
			},
			{
				Name:  "update",
				Usage: "Update a playlist's name or description",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "description", Usage: "New description"},
				},
				Action: r.PlaylistsUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlaylistsDelete,
			},
			{
				Name:  "show",
				Usage: "Show a playlist's songs",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:  "add-song",
				Usage: "Add a song to a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist-id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "song-id",
						Usage:    "Song ID",
						Required: true,
					},
				},
				Action: r.PlaylistsAddSong,
			},
			{
				Name:  "remove-song",
				Usage: "Remove a song from a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist-id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "song-id",
						Usage:    "Song ID",
						Required: true,
					},
				},
				Action: r.PlaylistsRemoveSong,
			},
			{
				Name:  "export",
				Usage: "Export a playlist to csv, markdown, text or json",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, text or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file or directory path",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Action: r.AuthStatus,
			},
			{
				Name:   "signout",
				Usage:  "Revoke the session and clear local credentials",
				Action: r.AuthSignOut,
			},
		},
	}
}

// setupCommand handles setup operations for database, config and storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the local database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Destination path",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "storage",
				Usage:  "Verify the audio storage bucket is reachable",
				Action: r.SetupStorage,
			},
			{
				Name:   "seed",
				Usage:  "Seed the library with a demo catalog",
				Action: r.SetupSeed,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive library browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing the library",
		Action:  r.TUI,
	}
}
