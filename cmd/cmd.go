// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if missing, initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles account operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an email/password account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Sources:  cli.EnvVars("CINEFEED_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Sources:  cli.EnvVars("CINEFEED_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "google",
				Usage:  "Sign in with Google through the browser",
				Action: r.AuthGoogle,
			},
			{
				Name:   "logout",
				Usage:  "End the current session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the current session and check it with the identity provider",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

func filterFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "Audience category: toda-la-familia, infancias, adolescentes, adultos or ninguno",
	}
}

// catalogCommand handles catalog listing and trailers. Every subcommand requires a session.
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Now-playing catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "genres",
				Usage: "List the genre table",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CatalogGenres,
			},
			{
				Name:  "list",
				Usage: "List now-playing movies",
				Flags: []cli.Flag{
					filterFlag(),
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Number of pages to load",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: text, json, markdown or csv",
						Value: "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the export to this file (a directory for markdown)",
					},
					&cli.BoolFlag{
						Name:  "posters",
						Usage: "Download poster images alongside a markdown export",
					},
				},
				Action: r.CatalogList,
			},
			{
				Name:  "popular",
				Usage: "List popular movies",
				Flags: []cli.Flag{
					filterFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: text, json, markdown or csv",
						Value: "text",
					},
				},
				Action: r.CatalogPopular,
			},
			{
				Name:  "trailer",
				Usage: "Resolve the trailer of a movie",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Movie ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Movie title used by the search fallback",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the trailer in the browser",
					},
				},
				Action: r.CatalogTrailer,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "Initial route (/login, /register or /catalog)",
				Value: "/",
			},
		},
		Action: r.TUI,
	}
}
