package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cinefeed/internal/catalog"
	"github.com/desertthunder/cinefeed/internal/shared"
	"github.com/desertthunder/cinefeed/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive catalog.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	nav := ui.NewNavigator()
	gw, err := r.newGateway(nav, io.Discard)
	if err != nil {
		return err
	}
	feed, err := r.newFeed(gw, catalog.Category(r.config.Catalog.DefaultFilter))
	if err != nil {
		return err
	}
	defer feed.Close()

	start := cmd.String("start")
	if start == "" {
		start = "/"
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Auth:      gw,
		Feed:      feed,
		Navigator: nav,
		Start:     start,
		Logger:    fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
