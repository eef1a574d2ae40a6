package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/mediaporter/mediaporter/pkg/notify"
	"github.com/mediaporter/mediaporter/pkg/plan"
)

type Config struct {
	TMDB     TMDB          `json:"tmdb" yaml:"tmdb" mapstructure:"tmdb"`
	TVDB     TVDB          `json:"tvdb" yaml:"tvdb" mapstructure:"tvdb"`
	Torrents Torrents      `json:"torrents" yaml:"torrents" mapstructure:"torrents"`
	Library  Library       `json:"library" yaml:"library" mapstructure:"library"`
	Notify   notify.Config `json:"notify" yaml:"notify" mapstructure:"notify"`
}

type TMDB struct {
	Scheme      string        `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host        string        `json:"host" yaml:"host" mapstructure:"host" validate:"required"`
	APIKey      string        `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey" validate:"required"`
	BaseBackoff time.Duration `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
}

type TVDB struct {
	Scheme      string        `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host        string        `json:"host" yaml:"host" mapstructure:"host" validate:"required"`
	APIKey      string        `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey" validate:"required"`
	BaseBackoff time.Duration `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
}

// Torrents configures the torrent client and the category conventions the
// pipeline honors when finalizing a run.
type Torrents struct {
	Scheme   string `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port"`
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`

	// DeleteAfterUpload lists categories whose torrents are removed from
	// the client, data included, once their files are uploaded.
	DeleteAfterUpload []string `json:"deleteAfterUpload" yaml:"deleteAfterUpload" mapstructure:"deleteAfterUpload"`
	// SkipUpdate lists categories the run never rewrites after upload.
	SkipUpdate []string `json:"skipUpdate" yaml:"skipUpdate" mapstructure:"skipUpdate"`
	// SkipUpload lists categories whose files non-interactive runs leave
	// alone entirely.
	SkipUpload []string `json:"skipUpload" yaml:"skipUpload" mapstructure:"skipUpload"`
	// ForceDelete removes every successful torrent regardless of category.
	ForceDelete bool `json:"forceDelete" yaml:"forceDelete" mapstructure:"forceDelete"`
}

// Enabled reports whether a torrent client is configured at all; without
// one the pipeline runs in plain file mode.
func (t Torrents) Enabled() bool {
	return t.Host != ""
}

type Library struct {
	Roots plan.Roots `json:"roots" yaml:"roots" mapstructure:"roots"`
	// RemoteHost is the ssh target the library lives on; empty when the
	// roots are mounted locally.
	RemoteHost string `json:"remoteHost" yaml:"remoteHost" mapstructure:"remoteHost"`
	// CompletedDir and ErroredDir are where finalized torrent data is
	// parked on the download host.
	CompletedDir string `json:"completedDir" yaml:"completedDir" mapstructure:"completedDir"`
	ErroredDir   string `json:"erroredDir" yaml:"erroredDir" mapstructure:"erroredDir"`
}

type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads a new configuration
func New(cu ConfigUnmarshaler) (Config, error) {
	var c Config

	if cu.ConfigFileUsed() != "" {
		err := cu.ReadInConfig()
		if err != nil {
			return c, err
		}
	}

	err := cu.Unmarshal(&c)
	return c, err
}

// Validate checks that the catalog credentials and library roots a run
// cannot work without are present.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
