package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/mermaidflow/internal/aiconnectors"
	"github.com/mermaidflow/internal/config"
)

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Required variables that are missing
	Present  map[string]string // Variables that are set (masked values)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredConfig reports which credentials the configured providers and
// storage driver need, and whether each is available.
func CheckRequiredConfig(cfg *config.Config) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	for _, p := range []config.ProviderConfig{cfg.Providers.Classifier, cfg.Providers.Generator} {
		if p.Provider == string(aiconnectors.ProviderOllama) {
			continue
		}
		name := p.KeyEnvVar()
		if _, seen := result.Present[name]; seen {
			continue
		}
		if p.APIKey == "" {
			if !contains(result.Missing, name) {
				result.Missing = append(result.Missing, name)
			}
			continue
		}
		result.Present[name] = maskSecret(p.APIKey)
	}

	if cfg.Storage.Driver == config.StoragePostgres {
		if cfg.Storage.DSN == "" {
			result.Missing = append(result.Missing, "DATABASE_URL")
		} else {
			result.Present["DATABASE_URL"] = maskSecret(cfg.Storage.DSN)
		}
	} else if os.Getenv("DATABASE_URL") != "" {
		result.Warnings = append(result.Warnings, "DATABASE_URL is set but storage.driver is memory; chats will not persist")
	}

	if cfg.Pipeline.RepairJSON {
		result.Warnings = append(result.Warnings, "pipeline.repair_json is on; malformed classifier output is repaired instead of rejected")
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(w io.Writer, result *ConfigCheckResult) {
	fmt.Fprintln(w, "=== Configuration Check ===")
	fmt.Fprintln(w, "")

	if len(result.Missing) > 0 {
		fmt.Fprintln(w, "❌ Missing required variables:")
		for _, v := range result.Missing {
			fmt.Fprintf(w, "   - %s\n", v)
		}
		fmt.Fprintln(w, "")
	}

	if len(result.Present) > 0 {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "✓ Configured variables:")
		for _, k := range keys {
			fmt.Fprintf(w, "   - %s = %s\n", k, result.Present[k])
		}
		fmt.Fprintln(w, "")
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "⚠ Warning: %s\n", warning)
	}

	if len(result.Missing) == 0 {
		fmt.Fprintln(w, "✓ All required configuration is present")
	}

	fmt.Fprintln(w, "============================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// EnvCommand groups environment helpers.
func EnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Inspect environment configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Report missing credentials for the configured providers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Load variables from `FILE` first, overriding the environment",
					},
				},
				Action: runEnvCheck,
			},
		},
	}
}

func runEnvCheck(c *cli.Context) error {
	if file := c.String("file"); file != "" {
		if err := godotenv.Overload(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	result := CheckRequiredConfig(cfg)
	PrintConfigCheck(c.App.Writer, result)
	if len(result.Missing) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}
