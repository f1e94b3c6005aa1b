// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles database setup and migrations
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config if missing, then run database migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "credentials",
				Usage: "Write Google OAuth client credentials to the config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "client-id",
						Usage:    "Google OAuth client ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "client-secret",
						Usage:    "Google OAuth client secret",
						Required: true,
					},
				},
				Action: r.SetupCredentials,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the latest database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// calendarCommand handles Google Calendar authorization
func calendarCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "calendar",
		Aliases: []string{"cal"},
		Usage:   "Google Calendar authorization",
		Commands: []*cli.Command{
			{
				Name:  "listen",
				Usage: "Wait for a single OAuth redirect on localhost and print the code",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Loopback port to listen on (defaults to oauth.port)",
					},
					&cli.IntFlag{
						Name:    "timeout",
						Aliases: []string{"t"},
						Usage:   "Seconds to wait for the redirect (defaults to oauth.timeout_seconds)",
						Value:   -1,
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Show an interactive countdown while waiting",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CalendarListen,
			},
			{
				Name:  "connect",
				Usage: "Authorize Google Calendar in the browser and store tokens",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Show an interactive countdown while waiting",
					},
				},
				Action: r.CalendarConnect,
			},
			{
				Name:  "status",
				Usage: "Show whether Google Calendar is connected",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CalendarStatus,
			},
			{
				Name:   "disconnect",
				Usage:  "Forget stored Google Calendar tokens",
				Action: r.CalendarDisconnect,
			},
		},
	}
}

// settingsCommand reads and writes key/value settings
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Read and write application settings",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print a setting value",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "key",
					},
				},
				Action: r.SettingsGet,
			},
			{
				Name:  "set",
				Usage: "Store a setting value",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "key",
					},
					&cli.StringArg{
						Name: "value",
					},
				},
				Action: r.SettingsSet,
			},
			{
				Name:   "list",
				Usage:  "List stored setting keys",
				Action: r.SettingsList,
			},
		},
	}
}
