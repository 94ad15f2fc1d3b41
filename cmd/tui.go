package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tallyho/internal/repositories"
	"github.com/desertthunder/tallyho/internal/services"
	"github.com/desertthunder/tallyho/internal/shared"
	"github.com/desertthunder/tallyho/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal console for browsing and editing lists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tallyho-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	db, err := r.openDatabase(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	model := ui.NewModel(ctx, users, services.NewListService(users, r.logger))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
