package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebox/internal/media"
	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
	"github.com/desertthunder/tunebox/internal/stores"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	identity   services.IdentityProvider
	store      services.Store
	blobs      services.BlobStore
	uploader   *media.Uploader
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	session   *stores.SessionProvider
	songs     *stores.SongStore
	playlists *stores.PlaylistStore
	notifier  stores.Notifier
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Identity   services.IdentityProvider
	Store      services.Store
	Blobs      services.BlobStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Notifier   stores.Notifier
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Notifier == nil {
		opts.Notifier = stores.NewLogNotifier(opts.Logger)
	}

	r := &Runner{
		config:     opts.Config,
		identity:   opts.Identity,
		store:      opts.Store,
		blobs:      opts.Blobs,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		notifier:   opts.Notifier,
	}

	if opts.Blobs != nil {
		r.uploader = media.NewUploader(opts.Blobs, opts.Logger)
	}

	if opts.Identity != nil && opts.Store != nil {
		r.session = stores.NewSessionProvider(opts.Identity, opts.Notifier, opts.Logger)
		r.songs = stores.NewSongStore(r.session, opts.Store, opts.Notifier, opts.Logger)
		r.playlists = stores.NewPlaylistStore(r.session, opts.Store, opts.Notifier, opts.Logger)
	}

	return r
}

// SetLogger swaps the runner's logger, e.g. to redirect logs away from the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// resolve runs identity resolution so store operations see the persisted
// session. Safe to call more than once.
func (r *Runner) resolve(ctx context.Context) error {
	if r.session == nil {
		return fmt.Errorf("%w: stores not initialized", shared.ErrInvalidArgument)
	}
	r.session.Resolve(ctx)
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		songsCommand, playlistsCommand, authCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
