// Command petitions lists and monitors UK Parliament petitions.
//
//	petitions list              every petition, all pages
//	petitions hot               the first page of the default listing
//	petitions monitor           poll forever and report changes
//
// Configuration is read from flags, PETITIONS_* environment variables and an
// optional config.yaml; see internal/config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/uk-petitions/internal/config"
	"github.com/Sternrassler/uk-petitions/pkg/client"
	"github.com/Sternrassler/uk-petitions/pkg/loader"
	"github.com/Sternrassler/uk-petitions/pkg/logging"
	"github.com/Sternrassler/uk-petitions/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs once configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg    *config.Config
	logger zerolog.Logger
	redis  *redis.Client
	api    *client.Client
	loader *loader.HTTPLoader
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "petitions",
		Short: "List and monitor UK Parliament petitions",
		Long: `petitions reads the UK Parliament petitions site and reports petitions,
their signature counts and the moment they cross a threshold such as the
10,000 signatures that require a government response.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $HOME/.config/uk-petitions/config.yaml)")
	flags.String("base-url", "", "petitions site base URL")
	flags.String("redis-addr", "", "Redis address for caching, shared back-off and event publishing")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human-readable logs")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(newListCmd(a), newHotCmd(a), newMonitorCmd(a))
	return root
}

// globalFlags maps persistent flags to config keys.
var globalFlags = map[string]string{
	"base-url":     "api.base_url",
	"redis-addr":   "redis.addr",
	"log-level":    "log.level",
	"log-pretty":   "log.pretty",
	"metrics-addr": "metrics.addr",
}

// setup loads the configuration, binding the flags of the running command,
// and builds the logger, Redis connection and API client.
func (a *app) setup(cmd *cobra.Command, flagKeys map[string]string) error {
	for _, bindings := range []map[string]string{globalFlags, flagKeys} {
		for name, key := range bindings {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := a.v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := config.Init(a.v, a.cfgFile); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logging.Setup(logCfg)
	a.logger = logging.NewLogger("petitions")

	if opts := cfg.RedisOptions(); opts != nil {
		rdb := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
		a.redis = rdb
		a.logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	}

	api, err := client.New(cfg.ClientConfig(a.redis))
	if err != nil {
		a.close()
		return fmt.Errorf("create client: %w", err)
	}
	a.api = api
	a.loader = loader.NewHTTPLoader(api, logging.NewLogger("loader"))

	a.logger.Debug().
		Str("base_url", cfg.API.BaseURL).
		Str("user_agent", cfg.API.UserAgent).
		Bool("redis", a.redis != nil).
		Msg("Configured")
	return nil
}

// serveMetrics starts the metrics endpoint when one is configured.
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.Metrics.Addr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, a.cfg.Metrics.Addr, logging.NewLogger("metrics")); err != nil {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}

func (a *app) close() {
	if a.api != nil {
		a.api.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
