package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the base JSON Schema for the fleet configuration.
// It reflects the Config struct from types.go but excludes the 'Extensions'
// field; the schema generator tool re-opens additionalProperties at the root
// so extension sections like 'logging' still validate.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Do not allow unknown fields inside known sections.
		AllowAdditionalProperties: false,
		// Expand struct references instead of using $ref for cleaner base schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	// Create a temporary struct that omits the Extensions field
	// so it's not included in the base schema.
	type BaseConfig struct {
		Version       string        `yaml:"version,omitempty" jsonschema:"description=Configuration version (e.g. '1.0')"`
		ClaudeDir     string        `yaml:"claude_dir,omitempty" jsonschema:"description=Claude home directory holding transcripts and settings"`
		TokensMax     int           `yaml:"tokens_max,omitempty" jsonschema:"description=Context window size used for usage percentages"`
		DefaultBudget float64       `yaml:"default_budget,omitempty" jsonschema:"description=Monthly budget in USD when none is recorded"`
		Exclude       []string      `yaml:"exclude,omitempty" jsonschema:"description=Project directory patterns to hide from the fleet"`
		TUI           *TUIConfig    `yaml:"tui,omitempty" jsonschema:"description=Dashboard appearance and behavior settings"`
		Poll          *PollConfig   `yaml:"poll,omitempty" jsonschema:"description=Discovery poller settings"`
		Server        *ServerConfig `yaml:"server,omitempty" jsonschema:"description=Fleet state server settings"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Fleet Configuration"
	schema.Description = "Base schema for fleet.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
