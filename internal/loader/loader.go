package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"snk/internal/codec"
)

// ConfigFileChoices lists the conventional pipeline config locations, in
// search order, relative to the pipeline directory.
var ConfigFileChoices = []string{
	filepath.Join("config", "config.yaml"),
	filepath.Join("config", "config.yml"),
	"config.yaml",
	"config.yml",
}

// ConfigParseError reports a present-but-malformed pipeline config or sidecar
// file. It is fatal to CLI construction.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// FindConfigFile searches the conventional config locations within the
// pipeline directory. Returns "" when none exists.
func FindConfigFile(pipelineDir string) string {
	for _, choice := range ConfigFileChoices {
		path := filepath.Join(pipelineDir, choice)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfigFile reads and parses one YAML config file into a config tree.
// Keys containing the reserved delimiter are rejected here, before any
// options are synthesized from them.
func LoadConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	if err := codec.ValidateKeys(tree); err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	return tree, nil
}

// LoadPipelineConfig discovers and loads the pipeline's config file. An
// absent file is not an error: the pipeline simply has no configurable keys.
func LoadPipelineConfig(pipelineDir string) (map[string]any, error) {
	path := FindConfigFile(pipelineDir)
	if path == "" {
		return map[string]any{}, nil
	}
	return LoadConfigFile(path)
}
