// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the web application
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run migrations and start the web server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides config and PORT)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the app in the default browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand creates the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml from the template, initialize the database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

func rollbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "rollback",
		Usage:  "Roll back the most recently applied migration",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Rollback,
	}
}

func migrationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrations",
		Usage:  "Show applied and pending migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.MigrationStatus,
	}
}

// purgeCommand removes expired sessions from the SQLite store.
func purgeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "purge-sessions",
		Usage:  "Delete expired sessions from the database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.PurgeSessions,
	}
}

// usersCommand lists accounts.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "List accounts with their login kind and item count",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Only list accounts of this kind (local, google, facebook)",
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
		Action: r.Users,
	}
}

// exportCommand writes one account's list to a file or stdout.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export an account's to-do list",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Username or account ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (csv, md, txt, json)",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (stdout when empty)",
			},
		},
		Action: r.Export,
	}
}

// tuiCommand returns the top-level TUI command for interactive list management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal console",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
