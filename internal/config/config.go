// Package config loads runtime settings from an optional YAML file, .env and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	redacted = "<redacted>"
)

type Config struct {
	App      AppConfig      `mapstructure:"app" yaml:"app"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Worker   WorkerConfig   `mapstructure:"worker" yaml:"worker"`
}

type AppConfig struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	Timezone  string `mapstructure:"timezone" yaml:"timezone"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port" yaml:"port"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type StorageConfig struct {
	Driver     string `mapstructure:"driver" yaml:"driver"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type PostgresConfig struct {
	Driver   string `mapstructure:"driver" yaml:"driver"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Name     string `mapstructure:"name" yaml:"name"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// DSN renders the connection URL understood by both pgx and lib/pq.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer" yaml:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

type AIConfig struct {
	OpenAIKey string `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	Model     string `mapstructure:"model" yaml:"model"`
}

type WorkerConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")
	v.SetDefault("app.timezone", "UTC")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit", 100)

	v.SetDefault("storage.driver", StoreSQLite)
	v.SetDefault("storage.sqlite_path", "./data/kanso.db")

	v.SetDefault("postgres.driver", "pgx")
	v.SetDefault("postgres.user", "kanso_user")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.name", "kanso_db")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "kanso-progress")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("ai.openai_api_key", "")
	v.SetDefault("ai.model", "gpt-4o-mini")

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.sweep_interval", "1h")
}

// legacyEnv lists the unprefixed variable names deployments already use.
var legacyEnv = map[string]string{
	"postgres.user":     "DB_USER",
	"postgres.password": "DB_PASSWORD",
	"postgres.host":     "DB_HOST",
	"postgres.port":     "DB_PORT",
	"postgres.name":     "DB_NAME",
	"server.port":       "PORT",
	"redis.host":        "REDIS_HOST",
	"redis.port":        "REDIS_PORT",
	"redis.password":    "REDIS_PASSWORD",
	"auth.jwt_secret":   "JWT_SECRET",
	"ai.openai_api_key": "OPENAI_API_KEY",
}

type Loader struct {
	v *viper.Viper
}

// NewLoader reads .env, the config file and the environment. With an empty
// configPath it looks for kanso.yaml in ./config and the working directory;
// a missing file is not an error.
func NewLoader(configPath string) (*Loader, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("kanso")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("KANSO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "KANSO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment", "component", "config")
	} else {
		slog.Info("config file loaded", "component", "config", "path", v.ConfigFileUsed())
	}

	return &Loader{v: v}, nil
}

func (l *Loader) Config() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	return &cfg, nil
}

// ConfigFile is the file in use, or "" when running on defaults.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch calls onChange with the reloaded config whenever the config file is
// written. It does nothing when no file is in use.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.ConfigFile() == "" {
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.Config()
		if err != nil {
			slog.Warn("config reload failed", "component", "config", "path", e.Name, "error", err)
			return
		}
		slog.Info("config reloaded", "component", "config", "path", e.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func Load(configPath string) (*Config, error) {
	l, err := NewLoader(configPath)
	if err != nil {
		return nil, err
	}
	return l.Config()
}

// Validate checks the settings a server needs before it starts.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q (want memory, sqlite or postgres)", c.Storage.Driver)
	}
	if c.Storage.Driver == StorePostgres && c.Postgres.Driver != "pgx" && c.Postgres.Driver != "postgres" {
		return fmt.Errorf("unknown postgres driver %q (want pgx or postgres)", c.Postgres.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Worker.Enabled && c.Worker.SweepInterval <= 0 {
		return errors.New("worker.sweep_interval must be positive")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server.port %q", c.Server.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the default zone for day based views.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid app.timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// Redacted returns a copy with every secret masked.
func (c *Config) Redacted() Config {
	r := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return redacted
	}
	r.Postgres.Password = mask(r.Postgres.Password)
	r.Redis.Password = mask(r.Redis.Password)
	r.Auth.JWTSecret = mask(r.Auth.JWTSecret)
	r.AI.OpenAIKey = mask(r.AI.OpenAIKey)
	return r
}

// Dump writes the redacted configuration as YAML.
func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Redacted()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
