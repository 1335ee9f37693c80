package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration is usable for the given mode
// before any work starts. Modes map to command groups: "analyze",
// "discover", "compare", "serve", "export".
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Tenant.ID == "" {
		problems = append(problems, "tenant.id is required")
	}
	if c.Enrich.Concurrency < 0 || c.Enrich.Concurrency > 16 {
		problems = append(problems, "enrich.concurrency must be between 0 and 16")
	}
	if t := c.Analysis.MatchThreshold; t < 0 || t > 1 {
		problems = append(problems, "analysis.match_threshold must be within [0, 1]")
	}
	if t := c.Analysis.ExactThreshold; t < 0 || t > 1 {
		problems = append(problems, "analysis.exact_threshold must be within [0, 1]")
	}

	switch mode {
	case "analyze", "discover":
		if c.Serper.Key == "" {
			problems = append(problems, "serper.key is required")
		}
	case "compare", "export":
		// Store checks above suffice.
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
