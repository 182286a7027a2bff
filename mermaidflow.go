package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/mermaidflow/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "mermaidflow",
		Usage:   "Turn natural-language descriptions into Mermaid diagrams",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: ./mermaidflow.toml, then ~/.mermaidflow.toml)",
			},
		},
		Before: func(c *cli.Context) error {
			// A missing .env is normal.
			_ = godotenv.Load()
			return nil
		},
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.GenerateCommand(),
			cmd.ChatCommand(),
			cmd.ConfigCommand(),
			cmd.EnvCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
