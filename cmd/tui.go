package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotitransfer/internal/shared"
	"github.com/desertthunder/spotitransfer/internal/tasks"
	"github.com/desertthunder/spotitransfer/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for the liked songs transfer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	source, err := r.serviceFor(roleSource)
	if err != nil {
		return err
	}
	if _, err := r.serviceFor(roleDest); err != nil {
		return err
	}

	repo, closeDB, err := r.libraryRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/spotitransfer-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine := r.engine(repo)
	opts := tasks.RunOptsFromConfig(r.config.Transfer)

	model := ui.NewModel(ctx, source, engine, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
