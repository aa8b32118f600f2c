// Package dbt exports rendered chains as dbt project artifacts: model .sql
// files, schema.yml entries and a dbt_project.yml scaffold.
package dbt

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// projectDirs are the directories a dbt project expects to exist.
var projectDirs = []string{
	"analyses", "dbt_packages", "logs", "macros", "models", "seeds", "target", "tests",
}

// ModelOptions controls how a model file is written.
type ModelOptions struct {
	OutputDirectory string // defaults to the working directory
	FileName        string // must end in .sql
	ConfigArgs      map[string]any
	IncludeSchema   bool // also write a schema.yml entry
}

// SaveModelFile writes a rendered SQL definition as a dbt model file and
// returns the path written. Config args become a config() block at the top
// of the model.
func SaveModelFile(sqlDefinition string, schema []warehouse.Column, opts ModelOptions) (string, error) {
	dir := opts.OutputDirectory
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	if opts.FileName == "" {
		return "", fmt.Errorf("a model file name is required")
	}

	if len(opts.ConfigArgs) > 0 {
		block := "{{\n  config(\n    " + formatConfigArgs(opts.ConfigArgs) + "\n  )\n}}"
		sqlDefinition = block + "\n\n" + sqlDefinition
	}

	path := filepath.Join(dir, opts.FileName)
	if err := os.WriteFile(path, []byte(sqlDefinition), 0o644); err != nil {
		return "", fmt.Errorf("failed to write model file: %w", err)
	}

	if opts.IncludeSchema {
		modelName := strings.TrimSuffix(opts.FileName, ".sql")
		if _, err := SaveSchemaFile(dir, modelName, schema, opts.ConfigArgs); err != nil {
			return "", err
		}
	}
	return path, nil
}

type schemaColumn struct {
	Name string `yaml:"name"`
}

type schemaModel struct {
	Name    string         `yaml:"name"`
	Columns []schemaColumn `yaml:"columns"`
	Config  map[string]any `yaml:"config,omitempty"`
}

type schemaFile struct {
	Version int           `yaml:"version"`
	Models  []schemaModel `yaml:"models"`
}

// SaveSchemaFile writes (or updates) the schema.yml next to the model files.
// An existing entry for the same model is replaced, other entries are kept.
func SaveSchemaFile(outputDirectory, modelName string, schema []warehouse.Column, configArgs map[string]any) (string, error) {
	path := filepath.Join(outputDirectory, "schema.yml")

	doc := schemaFile{Version: 2}
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return "", fmt.Errorf("failed to parse existing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}
	if doc.Version == 0 {
		doc.Version = 2
	}

	model := schemaModel{Name: modelName, Config: configArgs}
	for _, col := range schema {
		model.Columns = append(model.Columns, schemaColumn{Name: col.Name})
	}

	replaced := false
	for i, m := range doc.Models {
		if m.Name == modelName {
			doc.Models[i] = model
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Models = append(doc.Models, model)
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write schema file: %w", err)
	}
	return path, nil
}

// projectFile mirrors the dbt_project.yml layout.
type projectFile struct {
	Name                string         `yaml:"name"`
	Version             string         `yaml:"version"`
	ConfigVersion       int            `yaml:"config-version"`
	Profile             string         `yaml:"profile"`
	ModelPaths          []string       `yaml:"model-paths"`
	AnalysisPaths       []string       `yaml:"analysis-paths"`
	TestPaths           []string       `yaml:"test-paths"`
	SeedPaths           []string       `yaml:"seed-paths"`
	MacroPaths          []string       `yaml:"macro-paths"`
	SnapshotPaths       []string       `yaml:"snapshot-paths"`
	TargetPath          string         `yaml:"target-path"`
	LogPath             string         `yaml:"log-path"`
	PackagesInstallPath string         `yaml:"packages-install-path"`
	CleanTargets        []string       `yaml:"clean-targets"`
	Models              map[string]any `yaml:"models"`
}

// SaveProjectFile writes a dbt_project.yml scaffold unless one already
// exists at path. The namespace, when set, pins the project's database and
// schema config.
func SaveProjectFile(projectName, path string, namespace identifier.Namespace, materialize string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	modelConfig := map[string]any{"+materialized": materialize}
	if namespace.Database != "" {
		modelConfig["database"] = namespace.Database
	}
	if namespace.Schema != "" {
		modelConfig["schema"] = namespace.Schema
	}

	doc := projectFile{
		Name:                projectName,
		Version:             "1.0.0",
		ConfigVersion:       2,
		Profile:             "default",
		ModelPaths:          []string{"models"},
		AnalysisPaths:       []string{"analyses"},
		TestPaths:           []string{"tests"},
		SeedPaths:           []string{"seeds"},
		MacroPaths:          []string{"macros"},
		SnapshotPaths:       []string{"snapshots"},
		TargetPath:          "target",
		LogPath:             "logs",
		PackagesInstallPath: "dbt_packages",
		CleanTargets:        []string{"target", "dbt_packages"},
		Models:              map[string]any{projectName: modelConfig},
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write project file: %w", err)
	}
	return path, nil
}

// PrepareProjectDir creates the dbt project directory tree under
// projectDirectory and returns the project root.
func PrepareProjectDir(projectName, projectDirectory string) (string, error) {
	root := projectDirectory
	if filepath.Base(root) != projectName {
		root = filepath.Join(root, projectName)
	}
	for _, dir := range projectDirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return "", err
		}
	}
	return root, nil
}

// CheckProjectName lowercases a project name and warns when it uses
// characters dbt discourages.
func CheckProjectName(name string, logger *slog.Logger) string {
	lowered := strings.ToLower(name)
	for _, r := range lowered {
		if (r < 'a' || r > 'z') && r != '_' {
			if logger != nil {
				logger.Warn(
					"dbt project names should contain only lowercase characters and underscores",
					"name", name,
				)
			}
			break
		}
	}
	return lowered
}

// formatConfigArgs renders config args as key=value pairs in stable order.
func formatConfigArgs(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		switch v := args[k].(type) {
		case string:
			pairs[i] = fmt.Sprintf("%s='%s'", k, v)
		default:
			pairs[i] = fmt.Sprintf("%s=%v", k, v)
		}
	}
	return strings.Join(pairs, ",\n    ")
}
