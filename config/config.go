// Package config loads service configuration from built-in defaults, an
// optional TOML file, a .env file and the process environment, in that order
// of increasing precedence.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// DefaultJWTSecret is the placeholder secret refused in production.
const DefaultJWTSecret = "change-me-in-production"

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

var (
	productionOrigins  = []string{"https://vidshelf.app", "https://www.vidshelf.app"}
	developmentOrigins = []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:5173"}
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Security  SecurityConfig  `toml:"security"`
	YouTube   YouTubeConfig   `toml:"youtube"`
	CORS      CORSConfig      `toml:"cors"`
	Logging   LoggingConfig   `toml:"logging"`
	Storage   StorageConfig   `toml:"storage"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type ServerConfig struct {
	Port string `toml:"port"`
	Env  string `toml:"env"`
}

type DatabaseConfig struct {
	Driver        string `toml:"driver"`
	SQLitePath    string `toml:"sqlite_path"`
	PostgresURL   string `toml:"postgres_url"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

type SecurityConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

type YouTubeConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StorageConfig configures the MinIO avatar bucket.
type StorageConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
	PublicURL string `toml:"public_url"`
}

// Enabled reports whether avatar uploads are configured.
func (s StorageConfig) Enabled() bool { return s.Endpoint != "" }

type RateLimitConfig struct {
	AuthPerMinute   int `toml:"auth_per_minute"`
	SearchPerMinute int `toml:"search_per_minute"`
}

// Default returns the configuration described by config.example.toml.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// Example returns the annotated example configuration file.
func Example() []byte { return exampleConf }

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.finalize()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PORT", &c.Server.Port)
	str("APP_ENV", &c.Server.Env)
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_PATH", &c.Database.SQLitePath)
	str("DATABASE_URL", &c.Database.PostgresURL)
	str("MONGODB_URI", &c.Database.MongoURI)
	str("MONGODB_DB", &c.Database.MongoDatabase)
	str("JWT_SECRET", &c.Security.JWTSecret)
	str("YOUTUBE_API_KEY", &c.YouTube.APIKey)
	str("YOUTUBE_BASE_URL", &c.YouTube.BaseURL)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("MINIO_ENDPOINT", &c.Storage.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Storage.AccessKey)
	str("MINIO_SECRET_KEY", &c.Storage.SecretKey)
	str("MINIO_BUCKET", &c.Storage.Bucket)
	str("MINIO_PUBLIC_URL", &c.Storage.PublicURL)
	if v, ok := lookup("MINIO_USE_SSL"); ok && v != "" {
		c.Storage.UseSSL = v == "true" || v == "1"
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
	if err := num("RATE_LIMIT_AUTH", &c.RateLimit.AuthPerMinute); err != nil {
		return err
	}
	return num("RATE_LIMIT_SEARCH", &c.RateLimit.SearchPerMinute)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// finalize fills values that depend on the mode.
func (c *Config) finalize() {
	c.Server.Env = strings.ToLower(strings.TrimSpace(c.Server.Env))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if len(c.CORS.AllowedOrigins) == 0 {
		if c.IsProduction() {
			c.CORS.AllowedOrigins = productionOrigins
		} else {
			c.CORS.AllowedOrigins = developmentOrigins
		}
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool { return c.Server.Env == EnvProduction }

// Validate reports the first setting that prevents startup.
func (c *Config) Validate() error {
	switch c.Server.Env {
	case EnvProduction, EnvDevelopment:
	default:
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvProduction, EnvDevelopment, c.Server.Env)
	}
	if c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && c.Security.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.PostgresURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case "mongo":
		if c.Database.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	if c.Storage.Enabled() && c.Storage.Bucket == "" {
		return errors.New("MINIO_BUCKET is required when MINIO_ENDPOINT is set")
	}
	return nil
}
