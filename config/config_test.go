package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != "8080" || cfg.Database.Driver != "sqlite" {
		t.Errorf("unexpected defaults: %+v", cfg.Server)
	}
	if cfg.Security.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", cfg.Security.TokenTTL)
	}
	if cfg.YouTube.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.YouTube.Timeout)
	}
	if cfg.RateLimit.AuthPerMinute != 10 || cfg.RateLimit.SearchPerMinute != 30 {
		t.Errorf("unexpected rate limits: %+v", cfg.RateLimit)
	}
	if cfg.Storage.Enabled() {
		t.Error("storage should be disabled by default")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"PORT":              "9000",
		"APP_ENV":           "Production",
		"DB_DRIVER":         "postgres",
		"DATABASE_URL":      "postgres://localhost/vidshelf",
		"ALLOWED_ORIGINS":   " https://a.example , ,https://b.example",
		"MINIO_USE_SSL":     "true",
		"RATE_LIMIT_SEARCH": "5",
		"JWT_SECRET":        "",
	}))
	if err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	cfg.finalize()

	if cfg.Server.Port != "9000" || !cfg.IsProduction() {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.PostgresURL == "" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if got := strings.Join(cfg.CORS.AllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("origins = %q", got)
	}
	if !cfg.Storage.UseSSL || cfg.RateLimit.SearchPerMinute != 5 {
		t.Errorf("storage/ratelimit not applied: %+v %+v", cfg.Storage, cfg.RateLimit)
	}
	if cfg.Security.JWTSecret != DefaultJWTSecret {
		t.Error("empty env values must not clear settings")
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	err := Default().applyEnv(envMap(map[string]string{"RATE_LIMIT_AUTH": "ten"}))
	if err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_AUTH") {
		t.Errorf("expected RATE_LIMIT_AUTH error, got %v", err)
	}
}

func TestFinalize_OriginsByMode(t *testing.T) {
	dev := Default()
	dev.finalize()
	if dev.CORS.AllowedOrigins[0] != developmentOrigins[0] {
		t.Errorf("dev origins = %v", dev.CORS.AllowedOrigins)
	}

	prod := Default()
	prod.Server.Env = "production"
	prod.finalize()
	for _, o := range prod.CORS.AllowedOrigins {
		if strings.Contains(o, "localhost") {
			t.Errorf("production origins must not include %s", o)
		}
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vidshelf.toml")
	conf := "[server]\nport = \"7070\"\n[security]\ntoken_ttl = \"1h\"\n"
	if err := os.WriteFile(path, []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7070" || cfg.Security.TokenTTL != time.Hour {
		t.Errorf("file values not applied: %+v %+v", cfg.Server, cfg.Security)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Error("keys missing from the file keep their defaults")
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad env", func(c *Config) { c.Server.Env = "staging" }, "APP_ENV"},
		{"empty secret", func(c *Config) { c.Security.JWTSecret = "" }, "JWT_SECRET is required"},
		{"default secret in production", func(c *Config) { c.Server.Env = EnvProduction }, "must be changed"},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }, "DATABASE_URL"},
		{"mongo without uri", func(c *Config) { c.Database.Driver = "mongo" }, "MONGODB_URI"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unknown DB_DRIVER"},
		{"storage without bucket", func(c *Config) {
			c.Storage.Endpoint = "localhost:9000"
			c.Storage.Bucket = ""
		}, "MINIO_BUCKET"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}
