package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mermaidflow/internal/pipeline"
)

// GenerateCommand runs the pipeline once for a prompt given on the command line.
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate Mermaid code for a natural-language prompt",
		ArgsUsage: "PROMPT",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the full result as JSON",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Abort the run after this long",
				Value: 2 * time.Minute,
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if prompt == "" {
		return fmt.Errorf("missing required argument: PROMPT")
	}

	app, cleanup, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	result, err := app.Pipeline.Run(ctx, prompt, nil)
	if err != nil {
		var notDiagram *pipeline.NotDiagramError
		if errors.As(err, &notDiagram) {
			return cli.Exit(notDiagram.Message, 2)
		}
		return err
	}

	w := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(w, "%%%% %s (confidence: %s, %dms)\n", result.Type, result.Metadata.Confidence, result.Metadata.ProcessingTimeMs)
	fmt.Fprintln(w, result.Code)
	return nil
}
