package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/tallyho/internal/formatter"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/repositories"
	"github.com/desertthunder/tallyho/internal/shared"
	"github.com/urfave/cli/v3"
)

// userSummary is the JSON shape of one row of the users command.
type userSummary struct {
	ID       string          `json:"id"`
	Provider models.Provider `json:"provider"`
	Name     string          `json:"name"`
	Items    int             `json:"items"`
}

// Users lists accounts with their identity kind and item count.
func (r *Runner) Users(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if p := cmd.String("provider"); p != "" {
		provider, err := models.ParseProvider(p)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		criteria["provider"] = provider
	}

	users, err := repositories.NewUserRepository(db).List(ctx, criteria)
	if err != nil {
		return err
	}

	summaries := make([]userSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, userSummary{
			ID:       u.ID(),
			Provider: u.Provider(),
			Name:     u.Name(),
			Items:    len(u.Items()),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Accounts (%d)", len(summaries)))
	for _, s := range summaries {
		r.writePlain("%-36s  %-8s  %-24s  %d item(s)\n", s.ID, s.Provider, s.Name, s.Items)
	}
	return nil
}

// Export writes one account's list to stdout or the --output file.
//
// The --user value is matched against usernames first and account ids second.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	db, err := r.openDatabase(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := findUser(ctx, repositories.NewUserRepository(db), cmd.String("user"))
	if err != nil {
		return err
	}

	list := user.Snapshot()

	path := cmd.String("output")
	if path == "" {
		return formatter.Write(r.output, list, format)
	}

	written, err := formatter.WriteExport(list, format, path)
	if err != nil {
		return err
	}

	r.logger.Info("exported list", "owner", list.Owner, "items", len(list.Items), "path", written)
	return r.writePlain("Exported %d item(s) to %s\n", len(list.Items), written)
}

func findUser(ctx context.Context, users *repositories.UserRepository, key string) (*models.User, error) {
	user, err := users.GetByUsername(ctx, key)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, shared.ErrUserNotFound) {
		return nil, err
	}
	return users.Get(ctx, key)
}
