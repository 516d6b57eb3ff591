package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"snk/internal/args"
	"snk/internal/engine"
	"snk/internal/loader"
	"snk/internal/logger"
)

// runFlags is the static surface of the run command. The synthesized
// descriptor flags are registered alongside it on the same flag set.
type runFlags struct {
	configFile    string
	resources     []string
	profile       string
	force         bool
	dry           bool
	lock          bool
	keepResources bool
	keepSnakemake bool
	dagFile       string
	cores         int
	verbose       bool
	help          bool
}

// newRunCmd builds the run command. Flag parsing is disabled on the cobra
// side: the command owns its flag set so unknown tokens survive verbatim for
// Snakemake instead of being rejected or swallowed.
func newRunCmd(app *appContext) *cobra.Command {
	flags := &runFlags{}
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.StringVar(&flags.configFile, "config", "", "Path to an engine config file. Overrides the discovered default.")
	fs.StringArrayVarP(&flags.resources, "resource", "r", nil, "Additional resource to stage into the working directory, relative to the pipeline directory. Repeatable.")
	fs.StringVarP(&flags.profile, "profile", "p", "", "Name of a pipeline profile to configure the engine with.")
	fs.BoolVarP(&flags.force, "force", "f", false, "Force execution regardless of already created output.")
	fs.BoolVarP(&flags.dry, "dry", "n", false, "Display what would be done without executing anything.")
	fs.BoolVarP(&flags.lock, "lock", "l", false, "Lock the working directory.")
	fs.BoolVarP(&flags.keepResources, "keep-resources", "R", false, "Keep staged resources after the run completes.")
	fs.BoolVarP(&flags.keepSnakemake, "keep-snakemake", "S", false, "Keep the .snakemake folder after the run completes.")
	fs.StringVarP(&flags.dagFile, "dag", "d", "", "Save the job graph to a .pdf, .png or .svg file instead of running.")
	fs.IntVarP(&flags.cores, "cores", "c", 0, "Number of cores to use. Defaults to all.")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "Run in verbose mode.")
	fs.BoolVarP(&flags.help, "help", "h", false, "Show help for run.")
	// Consumed by the pre-scan before the CLI exists; accepted here so it is
	// not forwarded to the engine.
	fs.String("pipeline", ".", "Path to the pipeline directory.")

	// Value-taking descriptor flags are resolved token-by-token by the
	// reconciler so nested keys re-nest correctly; booleans bind here.
	manual := make(map[string]bool)
	for _, d := range app.Options {
		d.AddToFlagSet(fs)
		if !d.Bool() {
			manual[d.Name] = true
		}
	}

	cmd := &cobra.Command{
		Use:                "run [target]",
		Short:              "Run the pipeline. All unrecognized arguments are passed on to Snakemake.",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, tokens []string) error {
			bound, residual := args.Split(tokens, fs, manual)
			if err := fs.Parse(bound); err != nil {
				return err
			}
			if flags.help {
				return cmd.Help()
			}
			return app.runPipeline(cmd, fs, flags, residual)
		},
	}
	cmd.Flags().AddFlagSet(fs)
	return cmd
}

func (app *appContext) runPipeline(cmd *cobra.Command, fs *pflag.FlagSet, flags *runFlags, residual []string) error {
	if flags.verbose {
		app.Log = logger.New(true)
		app.Engine.Log = app.Log
	}

	passthrough, overrides, seen, err := args.Reconcile(residual, app.Options)
	if err != nil {
		return err
	}
	overrides = append(overrides, app.boolOverrides(fs, seen)...)

	if missing := app.missingRequired(seen); len(missing) > 0 {
		return fmt.Errorf("missing required options: --%s", strings.Join(missing, ", --"))
	}

	snakefile, err := app.Pipeline.Snakefile()
	if err != nil {
		return err
	}

	configFile := flags.configFile
	if configFile == "" {
		configFile = loader.FindConfigFile(app.Pipeline.Path)
	} else if _, err := os.Stat(configFile); err != nil {
		return fmt.Errorf("config file not found: %s", configFile)
	}

	profile := flags.profile
	if profile != "" {
		profile = app.Pipeline.FindProfile(profile)
	}

	useConda := app.Snk.RequireConda || engine.CommandAvailable("conda")
	frontend := "conda"
	if engine.CommandAvailable("mamba") {
		frontend = "mamba"
	}

	inv := &engine.Invocation{
		Snakefile:     snakefile,
		ConfigFile:    configFile,
		Profile:       profile,
		Cores:         flags.cores,
		Verbose:       flags.verbose,
		Force:         flags.force,
		DryRun:        flags.dry,
		Lock:          flags.lock,
		UseConda:      useConda,
		CondaPrefix:   app.Pipeline.CondaPrefix(),
		CondaFrontend: frontend,
		Passthrough:   passthrough,
		Overrides:     overrides,
	}
	argv, err := inv.Args()
	if err != nil {
		return err
	}

	// Requested after argument parsing succeeded, so a bad path aborts only
	// this run.
	if err := app.Snk.AddResources(flags.resources, app.Pipeline.Path); err != nil {
		var rerr *loader.ResourceNotFoundError
		if errors.As(err, &rerr) {
			app.Log.Error("resource not found", "path", rerr.Path)
		}
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	_, statErr := os.Stat(".snakemake")
	snakemakePreexisted := statErr == nil

	staging, err := engine.Stage(app.Pipeline.Path, workDir, app.Snk.Resources, app.Snk.SymlinkResources, app.Log)
	if err != nil {
		return err
	}
	if !flags.keepResources {
		defer staging.Cleanup()
	}

	if flags.dagFile != "" {
		return app.Engine.RenderDAG(cmd.Context(), argv, flags.dagFile)
	}

	if err := app.Engine.Run(cmd.Context(), argv); err != nil {
		return err
	}

	if !flags.keepSnakemake && !snakemakePreexisted {
		app.Log.Debug("removing .snakemake working-state directory")
		os.RemoveAll(".snakemake")
	}
	return nil
}

// boolOverrides resolves the boolean descriptor flags the flag set bound,
// applying the same default-suppression rule as the reconciler.
func (app *appContext) boolOverrides(fs *pflag.FlagSet, seen map[string]bool) []args.Override {
	var overrides []args.Override
	for _, d := range app.Options {
		if !d.Bool() || !fs.Changed(d.Name) {
			continue
		}
		seen[d.Name] = true
		value, err := fs.GetBool(d.Name)
		if err != nil {
			continue
		}
		if def, ok := d.Default.(bool); ok && def == value {
			continue
		}
		overrides = append(overrides, args.MakeOverride(d, value))
	}
	return overrides
}

func (app *appContext) missingRequired(seen map[string]bool) []string {
	var missing []string
	for _, d := range app.Options {
		if d.Required && !seen[d.Name] {
			missing = append(missing, d.Name)
		}
	}
	return missing
}
