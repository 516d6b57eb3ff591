package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"snk/internal/loader"
)

func newConfigCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:          "config",
		Short:        "Print the pipeline configuration.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, argv []string) error {
			path := loader.FindConfigFile(app.Pipeline.Path)
			if path == "" {
				return errors.New("could not find a pipeline config file")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			cmd.OutOrStdout().Write(data)
			return nil
		},
	}
}
