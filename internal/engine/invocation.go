package engine

import (
	"fmt"
	"strconv"

	"snk/internal/args"
	"snk/internal/codec"
)

// Invocation describes one engine call. Args renders it to the flat argument
// vector of the engine's command-line contract.
type Invocation struct {
	Snakefile     string
	ConfigFile    string
	Profile       string
	Cores         int // 0 means all cores
	Verbose       bool
	Force         bool
	DryRun        bool
	Lock          bool
	UseConda      bool
	CondaPrefix   string
	CondaFrontend string
	Passthrough   []string
	Overrides     []args.Override
}

// Args builds the engine argument vector. Overrides render last as a
// --config block so command-line values take precedence over any config
// file the engine loads.
func (inv *Invocation) Args() ([]string, error) {
	var argv []string
	if inv.Verbose {
		argv = append(argv, "--verbose")
	}

	cores := "all"
	if inv.Cores > 0 {
		cores = strconv.Itoa(inv.Cores)
	}
	argv = append(argv, "--rerun-incomplete", "--cores="+cores)

	argv = append(argv, "--snakefile="+inv.Snakefile)
	if inv.ConfigFile != "" {
		argv = append(argv, "--configfile="+inv.ConfigFile)
	}
	if inv.Profile != "" {
		argv = append(argv, "--profile="+inv.Profile)
	}

	if inv.UseConda {
		argv = append(argv, "--use-conda", "--conda-prefix="+inv.CondaPrefix)
		frontend := inv.CondaFrontend
		if frontend == "" {
			frontend = "conda"
		}
		argv = append(argv, "--conda-frontend="+frontend)
	}

	if inv.Force {
		argv = append(argv, "--forceall")
	}
	if inv.DryRun {
		argv = append(argv, "--dryrun")
	}
	if !inv.Lock {
		argv = append(argv, "--nolock")
	}

	argv = append(argv, inv.Passthrough...)

	if len(inv.Overrides) > 0 {
		argv = append(argv, "--config")
		for _, o := range inv.Overrides {
			value, err := codec.Format(o.Value)
			if err != nil {
				return nil, fmt.Errorf("formatting override %s: %w", o.Key, err)
			}
			argv = append(argv, o.Key+"="+value)
		}
	}
	return argv, nil
}
