package config

import (
	"fmt"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the main application configuration struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Routes    RoutesConfig    `mapstructure:"routes"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Debug           bool          `mapstructure:"debug"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UpstreamConfig controls every outbound fetch made by the generators and the wrapper.
type UpstreamConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
	AliExpressCookie string        `mapstructure:"aliexpress_cookie"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
	// RequestsPerSecond throttles calls to each upstream site. Zero disables it.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	IndexTTL   time.Duration `mapstructure:"index_ttl"`
}

// RateLimitConfig holds limit strings such as "1/second;30/minute".
type RateLimitConfig struct {
	Backend     string `mapstructure:"backend"`
	Scrapers    string `mapstructure:"scrapers"`
	Randomizers string `mapstructure:"randomizers"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RoutesConfig struct {
	GofileMaintenance bool `mapstructure:"gofile_maintenance"`
}

type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
	JWTSecret    string `mapstructure:"jwt_secret"`
}

// Enabled reports whether the admin routes should be mounted.
func (a AdminConfig) Enabled() bool {
	return a.PasswordHash != "" && a.JWTSecret != ""
}
