package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, in lookup order.
const (
	FileName    = "sqlchain.yaml"
	FileNameAlt = "sqlchain.yml"
)

// EnvPrefix is the prefix for environment overrides. Nested keys use a
// double underscore: SQLCHAIN_TARGET__TYPE maps to target.type.
const EnvPrefix = "SQLCHAIN_"

// targetFlags are the CLI flags that map into the target block.
var targetFlags = map[string]bool{
	"type": true, "path": true, "host": true, "port": true,
	"user": true, "password": true, "database": true, "schema": true,
}

// Load builds the configuration with precedence flags > env > file >
// defaults. An empty cfgFile falls back to sqlchain.yaml/.yml in the
// working directory; a missing file is not an error.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"target.type": "duckdb",
		"log_level":   "info",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		cfgFile = findConfigFile(".")
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Target.ApplyDefaults()
	expandTargetEnvVars(&cfg.Target)

	if err := cfg.Target.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKey maps a CLI flag name onto its config key.
func flagKey(name string) string {
	if targetFlags[name] {
		return "target." + name
	}
	return strings.ReplaceAll(name, "-", "_")
}

// findConfigFile returns the config file in dir, or empty when none exists.
func findConfigFile(dir string) string {
	for _, name := range []string{FileName, FileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} references with environment values. Unset
// variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands ${VAR} references in fields that commonly hold
// secrets or per-machine values.
func expandTargetEnvVars(t *TargetConfig) {
	t.Host = expandEnvVars(t.Host)
	t.User = expandEnvVars(t.User)
	t.Password = expandEnvVars(t.Password)
	t.Database = expandEnvVars(t.Database)
	t.Path = expandEnvVars(t.Path)
}
