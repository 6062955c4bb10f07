// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for streamsift. It is assembled from
// defaults, an optional config file, environment variables and CLI flags,
// in that order of precedence (lowest to highest).
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Rank    RankConfig    `mapstructure:"rank" yaml:"rank"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	Family            string        `mapstructure:"family" yaml:"family"`
	Profile           string        `mapstructure:"profile" yaml:"profile"`
	UseProfile        bool          `mapstructure:"use_profile" yaml:"use_profile"`
	UserDataDir       string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	CookieFile        string        `mapstructure:"cookie_file" yaml:"cookie_file"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	DisableCache      bool          `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	Args              []string      `mapstructure:"args" yaml:"args"`
}

// CaptureConfig tunes the capture session and carries the classification
// policy tables. The tables are data on purpose: the population of ad and
// tracking hosts drifts over time and must be adjustable without a rebuild.
type CaptureConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Parallel         int           `mapstructure:"parallel" yaml:"parallel"`
	DiscoverChannels bool          `mapstructure:"discover_channels" yaml:"discover_channels"`
	Denylist         []string      `mapstructure:"denylist" yaml:"denylist"`
	VolatileParams   []string      `mapstructure:"volatile_params" yaml:"volatile_params"`
	RedirectParams   []string      `mapstructure:"redirect_params" yaml:"redirect_params"`
	MasterTokens     []string      `mapstructure:"master_tokens" yaml:"master_tokens"`
	MediaTokens      []string      `mapstructure:"media_tokens" yaml:"media_tokens"`
	ManifestMIMEs    []string      `mapstructure:"manifest_mimes" yaml:"manifest_mimes"`
	SegmentExts      []string      `mapstructure:"segment_exts" yaml:"segment_exts"`
}

// RankConfig carries the scoring weights used to order captured candidates.
type RankConfig struct {
	KindWeights    map[string]float64 `mapstructure:"kind_weights" yaml:"kind_weights"`
	TrustBonus     float64            `mapstructure:"trust_bonus" yaml:"trust_bonus"`
	FirstPartyCDNs []string           `mapstructure:"first_party_cdns" yaml:"first_party_cdns"`
}

// OutputConfig selects the report format and destination.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	GroupTitle string `mapstructure:"group_title" yaml:"group_title"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "streamsift")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// Browser
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.family", "chrome")
	v.SetDefault("browser.profile", "")
	v.SetDefault("browser.use_profile", false)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.cookie_file", "")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 768)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.post_load_wait", "2s")

	// Capture
	v.SetDefault("capture.timeout", "60s")
	v.SetDefault("capture.poll_interval", "1s")
	v.SetDefault("capture.parallel", 2)
	v.SetDefault("capture.discover_channels", false)
	v.SetDefault("capture.denylist", []string{
		"youbora", "youboranqs01", "analytics", "doubleclick",
		"google-analytics", "googletagmanager", "googlesyndication",
		"facebook.com/tr", "beacon", "telemetry", "/metrics", "pixel",
		"adserver", "adsystem", "scorecardresearch", "newrelic", "nr-data",
		"sentry", "bugsnag", "hotjar", "horizon.globo.com", "krux.net",
		"chartbeat", "permutive", "navdmp", "tags.globo.com",
	})
	v.SetDefault("capture.volatile_params", []string{
		"_", "cb", "cachebust", "cache", "rnd", "random", "r",
		"ts", "t", "time", "timestamp", "nocache",
	})
	v.SetDefault("capture.redirect_params", []string{
		"ep.URL", "url", "link", "target", "redir", "redirect", "src",
	})
	v.SetDefault("capture.master_tokens", []string{"master", "playlist"})
	v.SetDefault("capture.media_tokens", []string{"chunklist", "media", "index"})
	v.SetDefault("capture.manifest_mimes", []string{
		"application/vnd.apple.mpegurl", "application/x-mpegurl",
		"audio/x-mpegurl", "application/dash+xml",
	})
	v.SetDefault("capture.segment_exts", []string{".ts", ".m4s", ".aac", ".vtt"})

	// Ranking
	v.SetDefault("rank.kind_weights", map[string]float64{
		"master":  100,
		"media":   80,
		"segment": 20,
		"unknown": 10,
	})
	v.SetDefault("rank.trust_bonus", 15.0)
	v.SetDefault("rank.first_party_cdns", []string{
		"glbimg.com", "globocdn.com.br", "akamaized.net",
	})

	// Output
	v.SetDefault("output.format", "m3u")
	v.SetDefault("output.path", "")
	v.SetDefault("output.group_title", "STREAMSIFT")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the static defaults above.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", got %q", c.Logger.Format)
	}
	if c.Capture.Timeout <= 0 {
		return fmt.Errorf("capture.timeout must be a positive duration")
	}
	if c.Capture.PollInterval <= 0 {
		return fmt.Errorf("capture.poll_interval must be a positive duration")
	}
	if c.Capture.Parallel <= 0 {
		return fmt.Errorf("capture.parallel must be a positive integer")
	}
	if len(c.Rank.KindWeights) == 0 {
		return fmt.Errorf("rank.kind_weights must not be empty")
	}
	switch strings.ToLower(c.Output.Format) {
	case "m3u", "json":
	default:
		return fmt.Errorf("unsupported output.format %q", c.Output.Format)
	}
	return nil
}
