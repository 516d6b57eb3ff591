package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newInfoCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display information about the current pipeline install.",
		RunE: func(cmd *cobra.Command, argv []string) error {
			info := struct {
				Name    string `json:"name"`
				Version string `json:"version"`
				Path    string `json:"pipeline_dir_path"`
			}{
				Name:    app.Pipeline.Name,
				Version: app.version(),
				Path:    app.Pipeline.Path,
			}

			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
