package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/mermaidflow/internal/api"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"api"},
		Usage:   "Start the mermaidflow API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides server.port)",
			},
		},
		Action: func(c *cli.Context) error {
			app, cleanup, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer cleanup()

			port := app.Config.Server.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			server := api.NewServer(port, api.Dependencies{
				Pipeline: app.Pipeline,
				Tracker:  app.Tracker,
				Chats:    app.Chats,
			})
			return server.Start()
		},
	}
}
