package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newProfileCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "List the pipeline profiles.",
		RunE: func(cmd *cobra.Command, argv []string) error {
			for _, name := range app.Pipeline.Profiles() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newEnvCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the pipeline conda environments.",
		RunE: func(cmd *cobra.Command, argv []string) error {
			for _, path := range app.Pipeline.Environments() {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Base(path))
			}
			return nil
		},
	}
}

func newScriptCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "script",
		Short: "List the pipeline scripts.",
		RunE: func(cmd *cobra.Command, argv []string) error {
			for _, path := range app.Pipeline.Scripts() {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Base(path))
			}
			return nil
		},
	}
}
