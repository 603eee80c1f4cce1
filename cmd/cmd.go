// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the HTTP login backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the login & session HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// configCommand handles the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Create and check the configuration file",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.ConfigInit,
			},
			{
				Name:   "check",
				Usage:  "Validate the loaded configuration",
				Action: r.ConfigCheck,
			},
		},
	}
}

// credentialsCommand inspects the credential store
func credentialsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "credentials",
		Aliases: []string{"creds"},
		Usage:   "Inspect stored Spotify credentials",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored credentials (tokens are never printed)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.CredentialsList,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove a user's credential, ending their sessions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Spotify user id",
						Required: true,
					},
				},
				Action: r.CredentialsRemove,
			},
		},
	}
}

// dbCommand manages the sqlite credential cache schema
func dbCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Manage the sqlite credential cache",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply pending migrations",
				Action: r.DBMigrate,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.DBRollback,
			},
		},
	}
}

// keygenCommand generates secrets for the config file
func keygenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a base64 key for auth.session_secret or store.encryption_key",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "bytes",
				Usage: "Key length in bytes",
				Value: 32,
			},
		},
		Action: r.Keygen,
	}
}
