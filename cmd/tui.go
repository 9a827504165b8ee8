package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/desertthunder/plshuffle/internal/tasks"
	"github.com/desertthunder/plshuffle/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for picking and shuffling a playlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	fileLogger, err := r.useFileLogger()
	if err != nil {
		return err
	}

	if err := r.connect(ctx); err != nil {
		return err
	}

	opts, err := r.replicatorOpts(cmd)
	if err != nil {
		return err
	}
	replicator := tasks.NewReplicator(r.remote, opts)

	model := ui.NewModel(ctx, r.catalog, replicator, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// useFileLogger redirects logs to [shared.LogConfig.File] so they don't tear the TUI.
// It runs before any client is built so every component logs to the file.
func (r *Runner) useFileLogger() (*log.Logger, error) {
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/plshuffle-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	level := r.logLevel
	if level == "" {
		level = r.config.Log.Level
	}
	shared.SetLogLevel(fileLogger, level)
	r.SetLogger(fileLogger)
	return fileLogger, nil
}
