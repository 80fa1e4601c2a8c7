// Package cli implements the verscout command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verscout/verscout/pkg/buildinfo"
	"github.com/verscout/verscout/pkg/cache"
	"github.com/verscout/verscout/pkg/config"
	"github.com/verscout/verscout/pkg/detect"
	"github.com/verscout/verscout/pkg/fetch"
	"github.com/verscout/verscout/pkg/strategy"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "verscout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Verscout detects the latest published versions of software",
		Long:         `Verscout probes release APIs and vendor pages to answer "what is the latest version of X", with tiered caching, per-host circuit breaking and bounded concurrency.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file")

	// Register all subcommands
	root.AddCommand(c.detectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.strategiesCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Factory
// =============================================================================

// engine bundles the orchestrator with its teardown.
type engine struct {
	orchestrator *detect.Orchestrator
	config       config.Config
	store        cache.Cache
}

func (e *engine) close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// buildEngine assembles the detection engine from the loaded config: the
// fetcher, the strategy registry, the cache tiers that are reachable, and the
// orchestrator on top.
func (c *CLI) buildEngine(ctx context.Context, noCache bool) (*engine, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewHTTPFetcher(cfg.FetchHeaders())
	registry := strategy.DefaultRegistry(fetcher)
	store := c.buildCache(ctx, cfg, noCache)

	orch := detect.New(detect.Config{
		CacheTTL: cfg.Detection.CacheTTL.Std(),
		Breaker:  cfg.BreakerConfig(),
		Limiter:  cfg.LimiterConfig(),
	}, registry, store, c.Logger)

	return &engine{orchestrator: orch, config: cfg, store: store}, nil
}

// buildCache assembles the tiered cache. Unreachable tiers are skipped with a
// warning; detection works with whatever remains.
func (c *CLI) buildCache(ctx context.Context, cfg config.Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}

	tiers := []cache.Tier{
		{Name: "memory", Cache: cache.NewMemoryCache(cfg.Cache.MemoryMaxEntries)},
	}

	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			c.Logger.Warn("shared cache tier unavailable", "addr", cfg.Cache.RedisAddr, "error", err)
		} else {
			tiers = append(tiers, cache.Tier{Name: "redis", Cache: rc})
		}
	}

	switch {
	case cfg.Cache.MongoURI != "":
		mc, err := cache.NewMongoCache(ctx, cache.MongoConfig{URI: cfg.Cache.MongoURI})
		if err != nil {
			c.Logger.Warn("durable cache tier unavailable", "error", err)
		} else {
			tiers = append(tiers, cache.Tier{Name: "mongo", Cache: mc})
		}
	default:
		path := cfg.Cache.Path
		if path == "" {
			path = defaultCachePath()
		}
		if path != "" {
			bc, err := cache.NewBoltCache(path)
			if err != nil {
				c.Logger.Warn("durable cache tier unavailable", "path", path, "error", err)
			} else {
				tiers = append(tiers, cache.Tier{Name: "bolt", Cache: bc})
			}
		}
	}

	return cache.NewTiered(c.Logger, tiers...)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/verscout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultCachePath is the embedded durable tier's database file, or "" when
// no cache directory can be resolved.
func defaultCachePath() string {
	dir, err := cacheDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "cache.db")
}
