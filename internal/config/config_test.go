package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("load err=%v", err)
	}
	if cfg.Server.APIPrefix != "/api/v1" {
		t.Fatalf("api_prefix=%q want=/api/v1", cfg.Server.APIPrefix)
	}
	if cfg.Auth.AccessTokenTTL != 8*24*time.Hour {
		t.Fatalf("ttl=%v want=192h", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Pagination.DefaultSize != 20 {
		t.Fatalf("default_size=%d want=20", cfg.Pagination.DefaultSize)
	}
	if !cfg.Auth.OpenRegistration {
		t.Fatalf("open_registration=false want=true")
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("server:\n  http_addr: \":9090\"\nauth:\n  secret_key: from-file\npagination:\n  default_size: 10\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MSPT_AUTH_SECRET_KEY", "from-env")
	t.Setenv("MSPT_SERVER_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("load err=%v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("http_addr=%q want=:9090", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.SecretKey != "from-env" {
		t.Fatalf("secret=%q want=from-env", cfg.Auth.SecretKey)
	}
	if cfg.Pagination.DefaultSize != 10 {
		t.Fatalf("default_size=%d want=10", cfg.Pagination.DefaultSize)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors=%v want two origins", cfg.Server.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		App:        AppConfig{Env: "prod"},
		Auth:       AuthConfig{SecretKey: "s", AccessTokenTTL: time.Hour},
		Pagination: PaginationConfig{DefaultSize: 20, MaxSize: 100},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config err=%v", err)
	}
	cases := map[string]func(c *Config){
		"missing secret": func(c *Config) { c.Auth.SecretKey = "" },
		"zero page size": func(c *Config) { c.Pagination.DefaultSize = 0 },
		"max below size": func(c *Config) { c.Pagination.MaxSize = 5 },
		"zero token ttl": func(c *Config) { c.Auth.AccessTokenTTL = 0 },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
