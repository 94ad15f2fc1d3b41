package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/tallyho/internal/repositories"
	"github.com/desertthunder/tallyho/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	config, err := r.loadConfig(configPath)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenConfigured(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// Rollback reverts the most recently applied migration.
func (r *Runner) Rollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer db.Close()

	migration, err := shared.RollbackMigration(ctx, db)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	return r.writePlain("Rolled back %04d_%s\n", migration.Version, migration.Name)
}

// MigrationStatus prints every known migration with its applied state.
func (r *Runner) MigrationStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := shared.Migrations(ctx, db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations")
	for _, s := range statuses {
		mark := "pending"
		if s.Applied {
			mark = "applied"
		}
		r.writePlain("%04d  %-24s %s\n", s.Version, s.Name, mark)
	}
	return nil
}

// PurgeSessions deletes expired rows from the sessions table.
func (r *Runner) PurgeSessions(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := repositories.NewSessionRepository(db).PurgeExpired(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("Purged %d expired session(s)\n", n)
}

// openDatabase loads the --config file and opens its database, running pending migrations when migrate is set.
func (r *Runner) openDatabase(ctx context.Context, cmd *cli.Command, migrate bool) (*sql.DB, error) {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if migrate {
		db, err := shared.OpenConfigured(ctx, config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	return db, nil
}
