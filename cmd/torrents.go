package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mediaporter/mediaporter/config"
)

var torrentsCmd = &cobra.Command{
	Use:   "torrents",
	Short: "list the torrents known to the configured client",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if !cfg.Torrents.Enabled() {
			return fmt.Errorf("no torrent client configured")
		}

		list, err := newCoordinator(cfg).List(cmd.Context())
		if err != nil {
			return err
		}

		for _, t := range list {
			category := t.Category
			if category == "" {
				category = "-"
			}
			fmt.Printf("%-12s %6.1f%% %10s %s\n", category, t.Progress*100, humanize.Bytes(uint64(t.Size)), t.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(torrentsCmd)
}
