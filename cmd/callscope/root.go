package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "callscope",
	Short: "Callscope renders recorded call traces.",
	Long: `Callscope renders call traces that were recorded into SQLite ` +
		`databases. Use "callscope text" to dump a trace as indented text ` +
		`and "callscope serve" to explore it in a browser.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
