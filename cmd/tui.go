package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunebox/internal/shared"
	"github.com/desertthunder/tunebox/internal/stores"
	"github.com/desertthunder/tunebox/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing the library.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil || r.songs == nil || r.playlists == nil {
		return fmt.Errorf("%w: stores not initialized, check configuration", shared.ErrInvalidArgument)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	if err := os.MkdirAll("./tmp", 0755); err == nil {
		if f, err := os.OpenFile("./tmp/tunebox-tui.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			defer f.Close()
			r.SetLogger(shared.NewLogger(f))
		}
	}

	r.session.Resolve(ctx)
	if _, err := r.session.Require(); err != nil {
		return err
	}

	notifier := stores.NewChannelNotifier(32)
	model := ui.NewModel(ctx, r.songs, r.playlists, notifier.Updates())
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
