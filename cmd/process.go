package cmd

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mediaporter/mediaporter/config"
	"github.com/mediaporter/mediaporter/pkg/catalog"
	"github.com/mediaporter/mediaporter/pkg/catalog/tmdb"
	"github.com/mediaporter/mediaporter/pkg/catalog/tvdb"
	"github.com/mediaporter/mediaporter/pkg/client"
	"github.com/mediaporter/mediaporter/pkg/manager"
	"github.com/mediaporter/mediaporter/pkg/notify"
	"github.com/mediaporter/mediaporter/pkg/parse"
	"github.com/mediaporter/mediaporter/pkg/plan"
	"github.com/mediaporter/mediaporter/pkg/resolve"
	"github.com/mediaporter/mediaporter/pkg/scan"
	"github.com/mediaporter/mediaporter/pkg/torrents"
	"github.com/mediaporter/mediaporter/pkg/transfer"
)

var (
	nonInteractive bool
	forceDelete    bool
)

var processCmd = &cobra.Command{
	Use:   "process <path>...",
	Short: "identify the media under the given paths and file it into the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		inputs := make([]string, 0, len(args))
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			inputs = append(inputs, abs)
		}

		m, err := newManager(cfg)
		if err != nil {
			return err
		}
		return m.Run(cmd.Context(), inputs...)
	},
}

func init() {
	processCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; ambiguous files fail instead")
	processCmd.Flags().BoolVar(&forceDelete, "force-delete", false, "delete every successfully uploaded torrent")
	rootCmd.AddCommand(processCmd)
}

func newManager(cfg config.Config) (*manager.Manager, error) {
	movies, series := newCatalogSources(cfg)

	resolverOpts := []resolve.Option{}
	if !nonInteractive {
		resolverOpts = append(resolverOpts, resolve.WithPrompter(resolve.NewConsolePrompter()))
	}
	resolver := resolve.New(movies, series, resolverOpts...)

	opts := manager.Options{
		Interactive:       !nonInteractive,
		ForceDelete:       forceDelete || cfg.Torrents.ForceDelete,
		DeleteAfterUpload: cfg.Torrents.DeleteAfterUpload,
		SkipUpdate:        cfg.Torrents.SkipUpdate,
		SkipUpload:        cfg.Torrents.SkipUpload,
		CompletedDir:      cfg.Library.CompletedDir,
		ErroredDir:        cfg.Library.ErroredDir,
	}

	managerOpts := []manager.Option{
		manager.WithNotifier(notify.New(cfg.Notify)),
	}
	if cfg.Torrents.Enabled() {
		managerOpts = append(managerOpts, manager.WithCoordinator(newCoordinator(cfg)))
	}

	return manager.New(
		scan.New(),
		parse.Parse,
		resolver,
		plan.New(cfg.Library.Roots),
		transfer.New(cfg.Library.RemoteHost),
		opts,
		managerOpts...,
	), nil
}

func newCatalogSources(cfg config.Config) (*catalog.MovieSource, *catalog.SeriesSource) {
	movieHTTP := client.NewRateLimited(
		client.WithMaxRetries(cfg.TMDB.MaxRetries),
		client.WithBaseBackoff(cfg.TMDB.BaseBackoff),
	)
	movieURL := url.URL{Scheme: cfg.TMDB.Scheme, Host: cfg.TMDB.Host}
	movies := catalog.NewMovieSource(tmdb.NewClient(movieURL.String(), cfg.TMDB.APIKey, movieHTTP))

	seriesHTTP := client.NewRateLimited(
		client.WithMaxRetries(cfg.TVDB.MaxRetries),
		client.WithBaseBackoff(cfg.TVDB.BaseBackoff),
	)
	seriesURL := url.URL{Scheme: cfg.TVDB.Scheme, Host: cfg.TVDB.Host}
	series := catalog.NewSeriesSource(tvdb.NewClient(seriesURL.String(), cfg.TVDB.APIKey, seriesHTTP))

	return movies, series
}

func newCoordinator(cfg config.Config) torrents.Coordinator {
	return torrents.NewQBittorrentClient(
		client.NewRateLimited(),
		cfg.Torrents.Scheme,
		cfg.Torrents.Host,
		cfg.Torrents.Username,
		cfg.Torrents.Password,
		cfg.Torrents.Port,
	)
}
