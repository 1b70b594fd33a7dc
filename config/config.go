package config

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/paths"
	"github.com/grovetools/fleet/util/pathutil"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads and parses a fleet configuration file. Both YAML and TOML are
// accepted, selected by file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	if isTOML(path) {
		cfg, err := decodeTOML(data)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration").
				WithDetail("path", path)
		}
		return finalize(cfg)
	}

	return LoadFromBytes(data)
}

// LoadDefault loads the machine-global configuration with layered merging:
// 1. Built-in defaults - base layer
// 2. Main config (~/.config/fleet/fleet.yml, .yaml or .toml)
// 3. Fragments (~/.config/fleet/conf.d/*.yml|*.toml) in lexical order
// 4. Local override (~/.config/fleet/fleet.override.yml) - overrides all
//
// FLEET_CONFIG bypasses the chain and loads that single file instead.
// A missing main config is not an error; defaults apply.
func LoadDefault() (*Config, error) {
	if path := os.Getenv("FLEET_CONFIG"); path != "" {
		return Load(path)
	}

	final := &Config{}

	configDir := paths.ConfigDir()
	if mainPath := findMainConfig(configDir); mainPath != "" {
		cfg, err := loadRaw(mainPath)
		if err != nil {
			return nil, err
		}
		final = cfg
	}

	for _, fragPath := range findFragments(configDir) {
		frag, err := loadRaw(fragPath)
		if err != nil {
			// A broken fragment should not take the whole tool down
			continue
		}
		final = mergeConfigs(final, frag)
	}

	for _, name := range []string{"fleet.override.yml", "fleet.override.yaml"} {
		overridePath := filepath.Join(configDir, name)
		if _, err := os.Stat(overridePath); err != nil {
			continue
		}
		override, err := loadRaw(overridePath)
		if err != nil {
			continue
		}
		final = mergeConfigs(final, override)
	}

	return finalize(final)
}

// LoadFromBytes parses a YAML configuration from a byte array.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	// Validate the raw document against the schema. The raw map is used so
	// that property names line up with the YAML key names the schema declares.
	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}
	if err := validator.Validate(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	return finalize(&cfg)
}

func finalize(cfg *Config) (*Config, error) {
	cfg.SetDefaults()
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandPaths resolves ~ and environment variables in configured paths, so
// the rest of the tool only ever sees absolute ones.
func (c *Config) expandPaths() error {
	if c.ClaudeDir != "" {
		expanded, err := pathutil.Expand(c.ClaudeDir)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid claude_dir").
				WithDetail("path", c.ClaudeDir)
		}
		c.ClaudeDir = expanded
	}
	if c.Server != nil && c.Server.Socket != "" {
		expanded, err := pathutil.Expand(c.Server.Socket)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid server socket path").
				WithDetail("path", c.Server.Socket)
		}
		c.Server.Socket = expanded
	}
	return nil
}

// loadRaw reads one layer without defaults or validation so that merging
// can distinguish unset fields from explicit values.
func loadRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	if isTOML(path) {
		cfg, err := decodeTOML(data)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration").
				WithDetail("path", path)
		}
		return cfg, nil
	}

	expanded := expandEnvVars(string(data))
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration").
			WithDetail("path", path)
	}
	return &cfg, nil
}

func decodeTOML(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))
	var cfg Config
	if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// findMainConfig returns the first existing main config file, or "".
func findMainConfig(configDir string) string {
	if configDir == "" {
		return ""
	}
	for _, name := range []string{"fleet.yml", "fleet.yaml", "fleet.toml"} {
		path := filepath.Join(configDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// findFragments returns the conf.d fragment files in lexical order.
func findFragments(configDir string) []string {
	if configDir == "" {
		return nil
	}
	dir := filepath.Join(configDir, "conf.d")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var fragments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yml", ".yaml", ".toml":
			fragments = append(fragments, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(fragments)
	return fragments
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
