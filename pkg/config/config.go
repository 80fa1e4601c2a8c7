// Package config loads engine configuration and watchlists from TOML files.
//
// Components never read ambient state: the CLI loads a Config here, applies
// environment overrides for secrets, and passes explicit per-component
// configs at construction. Tests instantiate isolated Configs directly.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verscout/verscout/pkg/breaker"
	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/limiter"
)

// Duration is a time.Duration that unmarshals from TOML strings like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full engine configuration.
type Config struct {
	Detection DetectionConfig `toml:"detection"`
	Breaker   BreakerConfig   `toml:"breaker"`
	Limiter   LimiterConfig   `toml:"limiter"`
	Cache     CacheConfig     `toml:"cache"`
	HTTP      HTTPConfig      `toml:"http"`
}

// DetectionConfig tunes the orchestrator.
type DetectionConfig struct {
	Timeout          Duration `toml:"timeout"`
	CacheTTL         Duration `toml:"cache_ttl"`
	BatchConcurrency int      `toml:"batch_concurrency"`
}

// BreakerConfig tunes circuit breaking and retry.
type BreakerConfig struct {
	FailureThreshold int      `toml:"failure_threshold"`
	OpenInterval     Duration `toml:"open_interval"`
	GrowthFactor     float64  `toml:"growth_factor"`
	MaxOpenInterval  Duration `toml:"max_open_interval"`
	MaxAttempts      int      `toml:"max_attempts"`
	RetryBaseDelay   Duration `toml:"retry_base_delay"`
	RetryMaxDelay    Duration `toml:"retry_max_delay"`
	Jitter           float64  `toml:"jitter"`
}

// LimiterConfig tunes admission ceilings.
type LimiterConfig struct {
	GlobalLimit    int `toml:"global_limit"`
	PerDomainLimit int `toml:"per_domain_limit"`
}

// CacheConfig selects and tunes cache tiers. Empty addresses disable the
// corresponding tier.
type CacheConfig struct {
	// MemoryMaxEntries caps the fast in-process tier.
	MemoryMaxEntries int `toml:"memory_max_entries"`

	// RedisAddr enables the shared tier when non-empty.
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// MongoURI enables a Mongo durable tier when non-empty. Takes
	// precedence over the embedded Bolt tier for multi-instance
	// deployments.
	MongoURI string `toml:"mongo_uri"`

	// Path is the embedded durable tier's database file. Empty disables
	// the durable tier unless MongoURI is set.
	Path string `toml:"path"`
}

// HTTPConfig tunes the bundled fetcher.
type HTTPConfig struct {
	UserAgent   string `toml:"user_agent"`
	GitHubToken string `toml:"github_token"`
}

// Default returns the engine defaults used when no file is present.
func Default() Config {
	return Config{
		Detection: DetectionConfig{
			Timeout:          Duration(30 * time.Second),
			CacheTTL:         Duration(time.Hour),
			BatchConcurrency: 8,
		},
		HTTP: HTTPConfig{UserAgent: "verscout"},
	}
}

// Load reads a TOML config file, falling back to [Default] when path is empty
// or the file does not exist. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if os.IsNotExist(err) {
				return cfg.withEnv(), nil
			}
			return cfg, verrors.Wrap(verrors.ErrCodeInvalidInput, err, "load config %s", path)
		}
	}
	return cfg.withEnv(), nil
}

// withEnv applies environment overrides for secrets and endpoints, so
// credentials stay out of config files.
func (c Config) withEnv() Config {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.HTTP.GitHubToken = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Cache.MongoURI = v
	}
	return c
}

// BreakerConfig converts to the breaker package's config type.
func (c Config) BreakerConfig() breaker.Config {
	return breaker.Config{
		FailureThreshold: c.Breaker.FailureThreshold,
		OpenInterval:     c.Breaker.OpenInterval.Std(),
		GrowthFactor:     c.Breaker.GrowthFactor,
		MaxOpenInterval:  c.Breaker.MaxOpenInterval.Std(),
		MaxAttempts:      c.Breaker.MaxAttempts,
		RetryBaseDelay:   c.Breaker.RetryBaseDelay.Std(),
		RetryMaxDelay:    c.Breaker.RetryMaxDelay.Std(),
		Jitter:           c.Breaker.Jitter,
	}
}

// LimiterConfig converts to the limiter package's config type.
func (c Config) LimiterConfig() limiter.Config {
	return limiter.Config{
		GlobalLimit:    c.Limiter.GlobalLimit,
		PerDomainLimit: c.Limiter.PerDomainLimit,
	}
}

// FetchHeaders derives the default header set for the HTTP fetcher.
func (c Config) FetchHeaders() map[string]string {
	headers := map[string]string{}
	if c.HTTP.UserAgent != "" {
		headers["User-Agent"] = c.HTTP.UserAgent
	}
	if c.HTTP.GitHubToken != "" {
		headers["Authorization"] = "Bearer " + c.HTTP.GitHubToken
	}
	return headers
}
