package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// dagMarker starts the graphviz document within the engine's --dag output.
const dagMarker = "digraph snakemake_dag"

// DagFiletypes lists the renderable DAG output formats.
var DagFiletypes = map[string]bool{"pdf": true, "png": true, "svg": true}

// DagRenderError reports a DAG render pipeline that produced no usable
// output.
type DagRenderError struct {
	Reason string
}

func (e *DagRenderError) Error() string {
	return "could not render dag: " + e.Reason
}

// RenderDAG runs the engine in --dag mode, extracts the graphviz document
// from its output and converts it with dot into the format implied by the
// output file's extension. The engine's full output is buffered before dot
// reads it, so the two stages cannot deadlock on pipe capacity.
func (e *Engine) RenderDAG(ctx context.Context, argv []string, outPath string) error {
	filetype := strings.TrimPrefix(filepath.Ext(outPath), ".")
	if !DagFiletypes[filetype] {
		return &DagRenderError{Reason: fmt.Sprintf("unsupported output format %q (use pdf, png or svg)", filetype)}
	}

	output, err := e.capture(ctx, append(argv, "--dag"))
	if err != nil {
		return err
	}

	idx := bytes.Index(output, []byte(dagMarker))
	if idx < 0 {
		return &DagRenderError{Reason: "engine produced no dag output"}
	}
	graph := output[idx:]

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	e.Log.Debug("rendering dag", "file", outPath, "format", filetype)
	dot := exec.CommandContext(ctx, e.DotCommand, "-T"+filetype)
	dot.Stdin = bytes.NewReader(graph)
	dot.Stdout = out
	dot.Stderr = e.Stderr
	if err := dot.Run(); err != nil {
		os.Remove(outPath)
		return &DagRenderError{Reason: fmt.Sprintf("%s failed: %v", e.DotCommand, err)}
	}
	return nil
}
