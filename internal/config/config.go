// Package config loads the petitions CLI configuration with viper.
//
// Values come from, in increasing priority: defaults, an optional YAML
// config file, PETITIONS_* environment variables (dots become underscores,
// so PETITIONS_REDIS_ADDR sets redis.addr) and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/client"
	"github.com/Sternrassler/uk-petitions/pkg/logging"
	"github.com/Sternrassler/uk-petitions/pkg/monitor"
	"github.com/Sternrassler/uk-petitions/pkg/notify"
	"github.com/Sternrassler/uk-petitions/pkg/pager"
	"github.com/Sternrassler/uk-petitions/pkg/queries"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "PETITIONS"

// DefaultUserAgent identifies the CLI to the petitions site.
const DefaultUserAgent = "uk-petitions/1.0 (+https://github.com/Sternrassler/uk-petitions)"

// Config is the complete CLI configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Pager   PagerConfig   `mapstructure:"pager"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig controls the HTTP client.
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// PagerConfig controls one-off traversals (list, hot).
type PagerConfig struct {
	LoadInterval time.Duration `mapstructure:"load_interval"`
	LoadDetail   bool          `mapstructure:"load_detail"`
}

// MonitorConfig controls the monitor command.
type MonitorConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	Interval        time.Duration `mapstructure:"interval"`
	LoadDetail      bool          `mapstructure:"load_detail"`
	Milestones      []int         `mapstructure:"milestones"`
}

// RedisConfig locates the optional Redis server. An empty Addr disables the
// response cache, shared back-off and event publishing.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	clientDefaults := client.DefaultConfig(nil, DefaultUserAgent)
	pagerDefaults := pager.DefaultConfig()
	monitorDefaults := monitor.DefaultConfig()

	return &Config{
		API: APIConfig{
			BaseURL:    clientDefaults.BaseURL,
			UserAgent:  clientDefaults.UserAgent,
			Timeout:    clientDefaults.Timeout,
			MaxRetries: clientDefaults.MaxRetries,
		},
		Pager: PagerConfig{
			LoadInterval: pagerDefaults.LoadInterval,
			LoadDetail:   pagerDefaults.LoadDetail,
		},
		Monitor: MonitorConfig{
			InitialInterval: monitorDefaults.InitialInterval,
			Interval:        monitorDefaults.Interval,
			LoadDetail:      monitorDefaults.LoadDetail,
			Milestones:      append([]int(nil), queries.SignatureMilestones...),
		},
		Redis: RedisConfig{
			Channel: notify.DefaultChannel,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
	}
}

// SetDefaults registers the defaults with v so they show up in Unmarshal
// and can be overridden by any other source.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.user_agent", defaults.API.UserAgent)
	v.SetDefault("api.timeout", defaults.API.Timeout)
	v.SetDefault("api.max_retries", defaults.API.MaxRetries)

	v.SetDefault("pager.load_interval", defaults.Pager.LoadInterval)
	v.SetDefault("pager.load_detail", defaults.Pager.LoadDetail)

	v.SetDefault("monitor.initial_interval", defaults.Monitor.InitialInterval)
	v.SetDefault("monitor.interval", defaults.Monitor.Interval)
	v.SetDefault("monitor.load_detail", defaults.Monitor.LoadDetail)
	v.SetDefault("monitor.milestones", defaults.Monitor.Milestones)

	v.SetDefault("redis.addr", defaults.Redis.Addr)
	v.SetDefault("redis.password", defaults.Redis.Password)
	v.SetDefault("redis.db", defaults.Redis.DB)
	v.SetDefault("redis.channel", defaults.Redis.Channel)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.pretty", defaults.Log.Pretty)

	v.SetDefault("metrics.addr", defaults.Metrics.Addr)
}

// Init prepares v: defaults, environment binding and the config file. An
// explicit cfgFile must exist; otherwise config.yaml is looked up in
// ConfigDir and the working directory and may be absent.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

// Load reads the configuration from v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "uk-petitions")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".uk-petitions"
	}
	return filepath.Join(home, ".config", "uk-petitions")
}

// ClientConfig converts the API section for client.New. rdb may be nil.
func (c *Config) ClientConfig(rdb *redis.Client) client.Config {
	cfg := client.DefaultConfig(rdb, c.API.UserAgent)
	cfg.BaseURL = c.API.BaseURL
	cfg.Timeout = c.API.Timeout
	cfg.MaxRetries = c.API.MaxRetries
	return cfg
}

// PagerConfig converts the pager section for pager.New.
func (c *Config) PagerConfig() pager.Config {
	cfg := pager.DefaultConfig()
	cfg.LoadInterval = c.Pager.LoadInterval
	cfg.LoadDetail = c.Pager.LoadDetail
	return cfg
}

// MonitorConfig converts the monitor section for monitor.New.
func (c *Config) MonitorConfig() monitor.Config {
	cfg := monitor.DefaultConfig()
	cfg.InitialInterval = c.Monitor.InitialInterval
	cfg.Interval = c.Monitor.Interval
	cfg.LoadDetail = c.Monitor.LoadDetail
	return cfg
}

// LoggingConfig converts the log section for logging.Setup.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}

// RedisOptions returns the options for redis.NewClient, or nil when Redis is
// not configured.
func (c *Config) RedisOptions() *redis.Options {
	if c.Redis.Addr == "" {
		return nil
	}
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}
