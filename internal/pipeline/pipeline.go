// Package pipeline models an installed Snakemake pipeline directory: its
// name, version, snakefile and the conventional profile, environment and
// script folders.
package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// SnakefileChoices mirrors the engine's own snakefile search order, relative
// to the pipeline directory.
var SnakefileChoices = []string{
	"Snakefile",
	"snakefile",
	filepath.Join("workflow", "Snakefile"),
	filepath.Join("workflow", "snakefile"),
}

// ErrSnakefileNotFound is returned when none of the conventional snakefile
// locations exist in the pipeline directory.
var ErrSnakefileNotFound = errors.New("snakefile not found")

// Pipeline is an installed pipeline directory.
type Pipeline struct {
	Path string
	Name string
}

// New resolves the pipeline directory to an absolute path.
func New(path string) (*Pipeline, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, errors.New("pipeline directory not found: " + path)
	}
	return &Pipeline{Path: abs, Name: filepath.Base(abs)}, nil
}

// Snakefile searches the conventional snakefile locations.
func (p *Pipeline) Snakefile() (string, error) {
	for _, choice := range SnakefileChoices {
		path := filepath.Join(p.Path, choice)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrSnakefileNotFound
}

// Version reports the pipeline version: an exact-match git tag of the
// installed revision when present, else "latest". A sidecar-declared version
// takes precedence and is resolved by the caller.
func (p *Pipeline) Version() string {
	if tag := p.tag(); tag != "" {
		return tag
	}
	return "latest"
}

// tag returns a tag pointing at HEAD, or "".
func (p *Pipeline) tag() string {
	repo, err := git.PlainOpen(p.Path)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}

	var found string
	tags, err := repo.Tags()
	if err != nil {
		return ""
	}
	tags.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tag, err := repo.TagObject(hash); err == nil {
			// Annotated tag: compare the tagged commit.
			hash = tag.Target
		}
		if hash == head.Hash() {
			found = ref.Name().Short()
		}
		return nil
	})
	return found
}

// CondaPrefix is the per-pipeline conda environment cache directory.
func (p *Pipeline) CondaPrefix() string {
	return filepath.Join(p.Path, ".conda")
}

// Profiles lists the profile directories under profiles/ or
// workflow/profiles/.
func (p *Pipeline) Profiles() []string {
	dir := p.findFolder("profiles")
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var profiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			profiles = append(profiles, entry.Name())
		}
	}
	sort.Strings(profiles)
	return profiles
}

// FindProfile resolves a profile name to its directory. Unresolved names are
// returned verbatim so the engine can interpret them.
func (p *Pipeline) FindProfile(name string) string {
	dir := p.findFolder("profiles")
	if dir != "" {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return name
}

// Environments lists the conda environment files under envs/ or
// workflow/envs/.
func (p *Pipeline) Environments() []string {
	dir := p.findFolder("envs")
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var envs []string
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !entry.IsDir() && (ext == ".yaml" || ext == ".yml") {
			envs = append(envs, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(envs)
	return envs
}

// Scripts lists the files under scripts/ or workflow/scripts/.
func (p *Pipeline) Scripts() []string {
	dir := p.findFolder("scripts")
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var scripts []string
	for _, entry := range entries {
		if !entry.IsDir() {
			scripts = append(scripts, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(scripts)
	return scripts
}

// findFolder searches the pipeline root and workflow/ for a named folder.
func (p *Pipeline) findFolder(name string) string {
	for _, candidate := range []string{
		filepath.Join(p.Path, name),
		filepath.Join(p.Path, "workflow", name),
	} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}
