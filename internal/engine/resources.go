package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"snk/internal/logger"
)

// Staging tracks the resources one invocation placed in the working
// directory so cleanup removes exactly those and nothing that pre-existed.
type Staging struct {
	staged []string
	log    *logger.Logger
}

// Stage copies (or symlinks) the pipeline's declared resources into the
// working directory. A resources/ folder in the pipeline root is staged
// implicitly, first. Destinations that already exist are skipped and left
// untouched. On error everything staged so far is removed.
func Stage(pipelineDir, workDir string, resources []string, symlink bool, log *logger.Logger) (*Staging, error) {
	all := resources
	if info, err := os.Stat(filepath.Join(pipelineDir, "resources")); err == nil && info.IsDir() {
		all = append([]string{"resources"}, resources...)
	}

	s := &Staging{log: log}
	if len(all) > 0 {
		log.Debug("staging resources", "count", len(all), "symlink", symlink)
	}
	for _, resource := range all {
		src := filepath.Join(pipelineDir, resource)
		dst := filepath.Join(workDir, filepath.Base(resource))

		if _, err := os.Lstat(dst); err == nil {
			log.Warn("resource already exists, skipping", "resource", filepath.Base(resource))
			continue
		}

		if err := stageOne(src, dst, symlink); err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("staging resource %s: %w", resource, err)
		}
		log.Debug("staged resource", "src", src, "dst", dst)
		s.staged = append(s.staged, dst)
	}
	return s, nil
}

// Cleanup removes the staged resources. Safe to call more than once.
func (s *Staging) Cleanup() {
	for _, path := range s.staged {
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn("failed to remove staged resource", "path", path, "error", err)
			continue
		}
		s.log.Debug("removed staged resource", "path", path)
	}
	s.staged = nil
}

func stageOne(src, dst string, symlink bool) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if symlink {
		return os.Symlink(src, dst)
	}
	if info.IsDir() {
		if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		return os.CopyFS(dst, os.DirFS(src))
	}
	return copyFile(src, dst, info.Mode().Perm())
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
