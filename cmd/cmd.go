// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config file, database, and migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles account authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the two account authorizations",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize an account with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Aliases:  []string{"a"},
						Usage:    "Which account to authorize (source or dest)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show which accounts are connected and as whom",
				Action: r.AuthStatus,
			},
		},
	}
}

// fetchCommand fetches the source library into the local cache
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch the source account's liked songs into the local cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the fetched library as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Fetch,
	}
}

// transferCommand handles the liked songs transfer
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer liked songs from the source to the destination account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "from-cache",
				Usage: "Transfer the previously fetched snapshot instead of fetching again",
			},
			&cli.IntFlag{
				Name:  "delay",
				Usage: "Milliseconds to wait between insertions (0 uses config)",
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Attempts per request before giving up (0 uses config)",
			},
		},
		Action: r.TransferRun,
	}
}

// cacheCommand inspects and clears the local library cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the locally cached library snapshot",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the cached snapshot",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "list",
						Usage: "List every cached track",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CacheShow,
			},
			{
				Name:   "clear",
				Usage:  "Drop the cached snapshot",
				Action: r.CacheClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for an interactive transfer.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for the liked songs transfer",
		Action:  r.TUI,
	}
}
