package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// SidecarChoices lists the sidecar annotation file locations, in search
// order, relative to the pipeline directory.
var SidecarChoices = []string{"snk.yaml", ".snk"}

// SnkConfig is the sidecar annotation document: per-key option metadata plus
// pipeline-level settings. The zero value is a valid config for pipelines
// without a sidecar.
type SnkConfig struct {
	Version          string         `yaml:"version"`
	Annotations      map[string]any `yaml:"annotations"`
	Resources        []string       `yaml:"resources"`
	RequireConda     bool           `yaml:"require_conda"`
	SymlinkResources bool           `yaml:"symlink_resources"`
}

// ResourceNotFoundError reports a requested resource that does not exist
// under the pipeline directory. Recoverable: it aborts the current run only.
type ResourceNotFoundError struct {
	Path string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("could not find resource: %s", e.Path)
}

// FindSidecar searches the sidecar locations within the pipeline directory.
// Returns "" when none exists.
func FindSidecar(pipelineDir string) string {
	for _, choice := range SidecarChoices {
		path := filepath.Join(pipelineDir, choice)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadSnkConfig loads the pipeline's sidecar config. Absence yields the zero
// config; a malformed file is a ConfigParseError.
func LoadSnkConfig(pipelineDir string) (*SnkConfig, error) {
	path := FindSidecar(pipelineDir)
	if path == "" {
		return &SnkConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}

	var cfg SnkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}

	if err := cfg.validateResources(pipelineDir); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AddResources appends paths to the resource list, skipping paths already
// present. Each path must exist under the pipeline directory.
func (c *SnkConfig) AddResources(paths []string, pipelineDir string) error {
	for _, path := range paths {
		if slices.Contains(c.Resources, path) {
			continue
		}
		if _, err := os.Stat(filepath.Join(pipelineDir, path)); err != nil {
			return &ResourceNotFoundError{Path: path}
		}
		c.Resources = append(c.Resources, path)
	}
	return nil
}

func (c *SnkConfig) validateResources(pipelineDir string) error {
	for _, resource := range c.Resources {
		if _, err := os.Stat(filepath.Join(pipelineDir, resource)); err != nil {
			return &ResourceNotFoundError{Path: resource}
		}
	}
	return nil
}
