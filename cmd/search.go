package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mediaporter/mediaporter/config"
	"github.com/mediaporter/mediaporter/pkg/media"
	"github.com/mediaporter/mediaporter/pkg/resolve"
)

var (
	searchYear    string
	searchSeason  string
	searchEpisode string
)

var searchCmd = &cobra.Command{
	Use:   "search <title>...",
	Short: "look a title up in the catalogs and print the matches",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		draft := &media.Draft{Identity: media.NewIdentity(media.TypeMovie)}
		draft.Title = strings.Join(args, " ")
		draft.Year = searchYear
		if searchSeason != "" || searchEpisode != "" {
			draft.Type = media.TypeSeries
			draft.Season = searchSeason
			draft.Episode = searchEpisode
		}

		movies, series := newCatalogSources(cfg)
		source := movies.Query
		if draft.Type == media.TypeSeries {
			source = series.Query
		}

		set := source(cmd.Context(), draft)
		if !set.HasMatches() {
			fmt.Println("no matches")
			return nil
		}

		for _, match := range resolve.RankedMatches(set) {
			fmt.Println(match.String())
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchYear, "year", "", "release year")
	searchCmd.Flags().StringVar(&searchSeason, "season", "", "season number; implies a series search")
	searchCmd.Flags().StringVar(&searchEpisode, "episode", "", "episode number; implies a series search")
	rootCmd.AddCommand(searchCmd)
}
