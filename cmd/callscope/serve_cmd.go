package main

import (
	"github.com/spf13/cobra"

	"github.com/tracekit/callscope/recording"
	"github.com/tracekit/callscope/web"
)

var (
	servePortFlag      int
	serveNoBrowserFlag bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <trace.sqlite3>",
	Short: "Explore a recorded trace in a browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roots, err := recording.LoadForest(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		server := web.NewServer().WithTrace(roots)

		if servePortFlag != 0 {
			server.WithPortNumber(servePortFlag)
		}

		if !serveNoBrowserFlag {
			server.OpenBrowser()
		}

		server.StartServer()

		select {}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePortFlag, "port", "p", 0,
		"port number to serve on (default: random)")
	serveCmd.Flags().BoolVar(&serveNoBrowserFlag, "no-browser", false,
		"do not open the trace in a browser")
	rootCmd.AddCommand(serveCmd)
}
