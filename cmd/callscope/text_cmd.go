package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/callscope/recording"
	"github.com/tracekit/callscope/render"
	"github.com/tracekit/callscope/report"
)

var textOutputFlag string

var textCmd = &cobra.Command{
	Use:   "text <trace.sqlite3>",
	Short: "Dump a recorded trace as indented text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roots, err := recording.LoadForest(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		renderer := render.NewTextRenderer()

		if textOutputFlag == "" {
			return renderer.Write(report.Project(roots), os.Stdout)
		}

		return renderer.Emit(roots, textOutputFlag)
	},
}

func init() {
	textCmd.Flags().StringVarP(&textOutputFlag, "output", "o", "",
		"write the report to a file instead of stdout")
	rootCmd.AddCommand(textCmd)
}
