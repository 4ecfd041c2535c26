package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytexport/internal/shared"
	"github.com/desertthunder/ytexport/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/ytexport-tui.log"

// TUI launches the interactive terminal UI for picking and exporting a playlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	source, err := r.source(ctx)
	if err != nil {
		return err
	}

	// Logs go to a file so they don't interfere with TUI rendering
	path := r.config.Log.File
	if path == "" {
		path = defaultTUILog
	}
	fileLogger, f, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, source, r.engine(), cmd.String("output"))
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}
