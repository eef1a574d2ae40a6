package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mediaporter/mediaporter/pkg/client"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediaporter",
	Short: "identify media files and file them into the library",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
}

func initConfig() {
	viper.SetConfigFile(cfgFile)

	viper.SetEnvPrefix("MEDIAPORTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	viper.SetDefault("tmdb.scheme", "https")
	viper.SetDefault("tmdb.host", "api.themoviedb.org")
	viper.SetDefault("tmdb.apiKey", "")
	viper.SetDefault("tmdb.maxRetries", client.DefaultMaxRetries)
	viper.SetDefault("tmdb.backoff", client.DefaultBaseBackoff)

	viper.SetDefault("tvdb.scheme", "https")
	viper.SetDefault("tvdb.host", "api.thetvdb.com")
	viper.SetDefault("tvdb.apiKey", "")
	viper.SetDefault("tvdb.maxRetries", client.DefaultMaxRetries)
	viper.SetDefault("tvdb.backoff", client.DefaultBaseBackoff)

	viper.SetDefault("torrents.scheme", "http")
	viper.SetDefault("torrents.host", "")
	viper.SetDefault("torrents.port", 8080)

	viper.SetDefault("library.roots.movies", "")
	viper.SetDefault("library.roots.comedies", "")
	viper.SetDefault("library.roots.documentary_singles", "")
	viper.SetDefault("library.roots.tv", "")
	viper.SetDefault("library.roots.documentary_series", "")

	viper.SetDefault("notify.port", 25)
}
