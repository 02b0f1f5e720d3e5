package cmd

import (
	"mixtape/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the mixtape HTTP server",
	Long:  `Start the HTTP server that serves the admin command API, uploads, the public playlist and the RSS feed.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
