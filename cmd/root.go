// Package cmd assembles the dynamically generated pipeline CLI: the static
// command surface plus one synthesized flag per pipeline config key.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"snk/internal/engine"
	"snk/internal/loader"
	"snk/internal/logger"
	"snk/internal/options"
	"snk/internal/pipeline"
)

// appContext carries everything resolved at CLI construction time. It is
// threaded explicitly through the subcommands instead of living in package
// state.
type appContext struct {
	Pipeline *pipeline.Pipeline
	Config   map[string]any
	Snk      *loader.SnkConfig
	Options  []options.Descriptor
	Log      *logger.Logger
	Engine   *engine.Engine
}

// version resolves the displayed pipeline version: sidecar-declared wins,
// then git tag, then "latest".
func (app *appContext) version() string {
	if app.Snk.Version != "" {
		return app.Snk.Version
	}
	return app.Pipeline.Version()
}

// Execute builds the CLI for the selected pipeline directory and runs it.
// The returned code is the engine's own exit status when the engine failed,
// 1 for internal errors, 0 otherwise.
func Execute() int {
	dir := pipelineDir(os.Args[1:])

	root, err := NewRootCmd(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "snk:", err)
		return 1
	}

	if err := root.Execute(); err != nil {
		var exit *engine.ExecError
		if errors.As(err, &exit) {
			return exit.Code
		}
		return 1
	}
	return 0
}

// pipelineDir resolves the pipeline directory before the CLI exists: the
// dynamic flags depend on it, so it is pre-scanned from the raw arguments
// (or SNK_PIPELINE) rather than parsed by the commands themselves.
func pipelineDir(argv []string) string {
	for i, arg := range argv {
		if arg == "--pipeline" && i+1 < len(argv) {
			return argv[i+1]
		}
		if rest, ok := strings.CutPrefix(arg, "--pipeline="); ok {
			return rest
		}
	}
	if dir := os.Getenv("SNK_PIPELINE"); dir != "" {
		return dir
	}
	return "."
}

// NewRootCmd loads the pipeline's config and sidecar, synthesizes the option
// descriptors and assembles the command tree. Malformed config documents and
// duplicate option names are fatal here, before any command runs.
func NewRootCmd(dir string) (*cobra.Command, error) {
	p, err := pipeline.New(dir)
	if err != nil {
		return nil, err
	}

	config, err := loader.LoadPipelineConfig(p.Path)
	if err != nil {
		return nil, err
	}
	snkConfig, err := loader.LoadSnkConfig(p.Path)
	if err != nil {
		return nil, err
	}
	descriptors, err := options.Build(config, snkConfig)
	if err != nil {
		return nil, err
	}

	log := logger.New(false)
	app := &appContext{
		Pipeline: p,
		Config:   config,
		Snk:      snkConfig,
		Options:  descriptors,
		Log:      log,
		Engine:   engine.New(log),
	}

	var showVersion, showPath bool
	root := &cobra.Command{
		Use:           p.Name,
		Short:         fmt.Sprintf("%s: a Snakemake pipeline CLI generated with snk", p.Name),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, argv []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), app.version())
				return nil
			}
			if showPath {
				fmt.Fprintln(cmd.OutOrStdout(), app.Pipeline.Path)
				return nil
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show the pipeline version.")
	root.Flags().BoolVarP(&showPath, "path", "p", false, "Show the pipeline path.")
	root.PersistentFlags().String("pipeline", ".", "Path to the pipeline directory.")

	root.AddCommand(newRunCmd(app))
	root.AddCommand(newInfoCmd(app))
	root.AddCommand(newConfigCmd(app))
	root.AddCommand(newProfileCmd(app))
	root.AddCommand(newEnvCmd(app))
	root.AddCommand(newScriptCmd(app))
	return root, nil
}
