package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/erdtower/internal/config"
	"github.com/matzehuels/erdtower/internal/server"
	"github.com/matzehuels/erdtower/pkg/cache"
	"github.com/matzehuels/erdtower/pkg/observability"
	"github.com/matzehuels/erdtower/pkg/pipeline"
	"github.com/matzehuels/erdtower/pkg/session"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Configuration is read from --config (YAML or TOML) and ERDTOWER_* environment
variables; a .env file in the working directory is loaded first. See the
internal/config package for every setting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (YAML or TOML)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	if c.Logger.GetLevel() > log.DebugLevel {
		c.Logger.SetLevel(levelFromString(cfg.LogLevel))
	}
	observability.NewLogHooks(c.Logger).Register()
	defer observability.Reset()

	b, err := openBackends(ctx, cfg, c.Logger)
	if err != nil {
		return err
	}
	defer b.Close()

	runner := pipeline.NewRunner(b.cache, nil, nil, c.Logger)
	srv := server.New(runner, b.store, c.Logger, server.Options{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		SessionTTL:     cfg.Sessions.TTL,
		NodeSpacing:    cfg.NodeSpacing,
		LayerSpacing:   cfg.LayerSpacing,
	})

	c.Logger.Info("starting server",
		"cache", cfg.Cache.Backend,
		"sessions", cfg.Sessions.Backend,
		"direction", cfg.Direction)
	return srv.Run(ctx, cfg.Addr)
}

// backends are the storage dependencies of the server.
type backends struct {
	cache cache.Cache
	store session.Store
	redis *redis.Client // closed here unless the cache owns it
}

func (b *backends) Close() error {
	var firstErr error
	for _, closer := range []func() error{b.store.Close, b.cache.Close} {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openBackends connects the cache and session store selected by cfg.
func openBackends(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backends, error) {
	b := &backends{}

	if cfg.Cache.Backend == "redis" || cfg.Sessions.Backend == "redis" {
		opt, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		b.redis = redis.NewClient(opt)
		ping := func() error { return cache.Retryable(b.redis.Ping(ctx).Err()) }
		if err := cache.RetryWithBackoff(ctx, 500*time.Millisecond, ping); err != nil {
			b.redis.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
	}

	switch cfg.Cache.Backend {
	case "none":
		b.cache = cache.NewNullCache()
	case "redis":
		b.cache = cache.NewRedisCacheFromClient(b.redis, cfg.Cache.Prefix)
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return nil, err
			}
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		b.cache = fc
	}

	switch cfg.Sessions.Backend {
	case "file":
		fs, err := session.NewFileStore(cfg.Sessions.Dir)
		if err != nil {
			return nil, err
		}
		b.store = fs
	case "redis":
		b.store = session.NewRedisStore(b.redis, "")
	case "mongo":
		ms, err := session.NewMongoStore(ctx, cfg.Sessions.MongoURI, cfg.Sessions.MongoDatabase)
		if err != nil {
			return nil, err
		}
		b.store = ms
	default:
		b.store = session.NewMemoryStore()
	}

	if cfg.Cache.Backend == "redis" {
		b.redis = nil
	}
	logger.Debug("opened backends", "cache", cfg.Cache.Backend, "sessions", cfg.Sessions.Backend)
	return b, nil
}
