package cmd

import (
	"fmt"
	"os"

	"mixtape/config"
	"mixtape/core/catalog"
	"mixtape/core/tags"
	"mixtape/store"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the songs directory and print the playlist",
	Long:  `Reconcile the song catalog against the songs directory, picking up new files and pruning missing ones, then print the resulting playlist.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		st := store.New(cfg.SettingsDir)
		cat := catalog.New(cfg.SongsDir, st, tags.NewReader())

		songs, err := cat.Scan()
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
			os.Exit(1)
		}

		for i, song := range songs {
			fmt.Printf("%2d. %s - %s (%s)\n", i+1, song.EffectiveArtist(), song.EffectiveTitle(), song.DurationLabel)
		}
		fmt.Printf("%d songs, %s\n", len(songs), cat.TotalRuntimeString())
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
