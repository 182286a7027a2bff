package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mermaidflow/internal/diagram"
	"github.com/mermaidflow/internal/prompts"
)

// prompt-check renders one stage template the way the pipeline would, so
// on-disk overrides can be reviewed without calling a model.
func main() {
	key := flag.String("prompt", prompts.KeyGenerate, "Template key (identify, improve, generate)")
	dir := flag.String("dir", "", "Directory of <key>.tmpl overrides")
	text := flag.String("text", "Show how a user logs in", "User prompt")
	typ := flag.String("type", string(diagram.Flowchart), "Diagram type for improve and generate")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	t, ok := diagram.ParseType(*typ)
	if !ok {
		log.Fatal().Str("type", *typ).Msg("unknown diagram type")
	}

	registry := prompts.DefaultRegistry()
	if err := registry.LoadDir(*dir); err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	vars := map[string]string{
		"prompt":        *text,
		"diagram_type":  string(t),
		"directive":     diagram.DefaultDirective(t),
		"diagram_types": strings.Join(diagram.TypeNames(), ", "),
	}
	if *key == prompts.KeyIdentify {
		vars["context_instruction"] = prompts.IdentifyExpertRole
	}

	out, err := prompts.NewManager(registry).Render(*key, vars)
	if err != nil {
		log.Fatal().Err(err).Str("prompt", *key).Msg("render failed")
	}
	fmt.Println("---- RENDERED PROMPT ----")
	fmt.Println(out)
}
