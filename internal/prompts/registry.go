package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// templateExt is the file extension of on-disk template overrides.
const templateExt = ".tmpl"

// Registry maps template keys to bodies.
type Registry map[string]string

// DefaultRegistry returns the built-in templates.
func DefaultRegistry() Registry {
	return Registry{
		KeyIdentify: identifyTemplate,
		KeyImprove:  improveTemplate,
		KeyGenerate: generateTemplate,
	}
}

// LoadDir overrides entries of r with <key>.tmpl files found in dir. Files
// whose key is not already registered are ignored. An empty dir is a no-op.
func (r Registry) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read prompt dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != templateExt {
			continue
		}
		key := strings.TrimSuffix(e.Name(), templateExt)
		if _, ok := r[key]; !ok {
			log.Warn().Str("file", e.Name()).Msg("prompts: ignoring template with unknown key")
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read prompt template %s: %w", e.Name(), err)
		}
		r[key] = string(body)
		log.Info().Str("key", key).Str("dir", dir).Msg("prompts: loaded template override")
	}
	return nil
}
