package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	rl "github.com/rogerio-castellano/everytools-api/internal/http/rate_limiter"
)

const envPrefix = "EVERYTOOLS"

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

const defaultAliExpressCookie = "xman_f=82eZ73Yk3kUmArs2cqSaeVhIBpZUqa5s/nFuPNZUbJduW17e9ELWYOdwJD9yZAawfaLD8+Yi69pXnJy2qhqQWnyq5vD3lfKYXc8WGgVIsu4ExnaqS8zejw==;aep_usuc_f=site=usa&c_tp=USD&region=US&b_locale=en_US"

// Load reads configuration from defaults, an optional config.yaml, a .env file and the
// environment, in increasing order of precedence.
func Load(paths ...string) (*Config, error) {
	// .env is optional, the process environment always wins over it
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// debug mode always logs everything in the human readable format
	if cfg.Server.Debug {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8452)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("upstream.timeout", 5*time.Second)
	v.SetDefault("upstream.user_agent", defaultUserAgent)
	v.SetDefault("upstream.aliexpress_cookie", defaultAliExpressCookie)
	v.SetDefault("upstream.max_body_bytes", int64(8<<20))
	v.SetDefault("upstream.requests_per_second", 5.0)
	v.SetDefault("upstream.burst", 10)

	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.default_ttl", 300*time.Second)
	v.SetDefault("cache.index_ttl", 24*time.Hour)

	v.SetDefault("ratelimit.backend", BackendMemory)
	v.SetDefault("ratelimit.scrapers", "1/second;30/minute;200/hour;600/day")
	v.SetDefault("ratelimit.randomizers", "5/second;5000/day")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("routes.gofile_maintenance", true)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", os.Getenv("JWT_SECRET"))
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if cfg.Upstream.RequestsPerSecond < 0 {
		return fmt.Errorf("upstream.requests_per_second must not be negative")
	}

	for key, backend := range map[string]string{
		"cache.backend":     cfg.Cache.Backend,
		"ratelimit.backend": cfg.RateLimit.Backend,
	} {
		switch backend {
		case BackendMemory:
		case BackendRedis:
			if cfg.Redis.Address == "" {
				return fmt.Errorf("%s is redis but redis.address is empty", key)
			}
		default:
			return fmt.Errorf("%s: unknown backend %q", key, backend)
		}
	}

	if _, err := rl.ParsePolicy(cfg.RateLimit.Scrapers); err != nil {
		return fmt.Errorf("ratelimit.scrapers: %w", err)
	}
	if _, err := rl.ParsePolicy(cfg.RateLimit.Randomizers); err != nil {
		return fmt.Errorf("ratelimit.randomizers: %w", err)
	}

	return nil
}
