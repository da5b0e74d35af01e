package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "TonLotto"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start the api server",
			Category:    "Api",
			Description: `Serves the public and admin lottery APIs.`,
		},
		{
			Action:      server.startWatcher,
			Name:        "watcher",
			Usage:       "Start the deposit watcher",
			Category:    "Worker",
			Description: `Polls the contract for deposits and drives round deadlines.`,
		},
		{
			Action: server.startMigrate,
			Name:   "migrate",
			Usage:  "Migrate the database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Usage: "apply a single migration version instead of all pending ones",
				},
			},
			Category:    "Tool",
			Description: `Applies pending schema migrations.`,
		},
		{
			Action: server.startToken,
			Name:   "token",
			Usage:  "Generate an admin access token",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "id",
					Usage: "subject of the token",
					Value: "operator",
				},
			},
			Category:    "Tool",
			Description: `Prints a bearer token for the admin APIs.`,
		},
	}

	s.app = app
}
