package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Store.Backend != StoreSQLite {
		t.Errorf("default store backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.Cache.Backend != CacheFile {
		t.Errorf("default cache backend = %q, want file", cfg.Cache.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if cfg.Store.Backend != StoreSQLite {
			t.Errorf("backend = %q, want sqlite default", cfg.Store.Backend)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[store]
backend = "mongo"
uri = "mongodb://localhost:27017"
database = "branchline"

[cache]
backend = "redis"
addr = "localhost:6379"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile error: %v", err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if cfg.Store.Backend != StoreMongo || cfg.Store.Database != "branchline" {
			t.Errorf("store = %+v", cfg.Store)
		}
		if cfg.Cache.Backend != CacheRedis || cfg.Cache.Addr != "localhost:6379" {
			t.Errorf("cache = %+v", cfg.Cache)
		}
	})

	t.Run("invalid backend rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[store]\nbackend = \"oracle\"\n"), 0644); err != nil {
			t.Fatalf("WriteFile error: %v", err)
		}
		if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown store backend") {
			t.Errorf("err = %v, want unknown store backend", err)
		}
	})

	t.Run("malformed toml rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("store = [broken"), 0644); err != nil {
			t.Fatalf("WriteFile error: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory store needs nothing", func(c *Config) { c.Store = StoreConfig{Backend: StoreMemory} }, false},
		{"sqlite without path", func(c *Config) { c.Store = StoreConfig{Backend: StoreSQLite} }, true},
		{"mongo without uri", func(c *Config) { c.Store = StoreConfig{Backend: StoreMongo, Database: "x"} }, true},
		{"redis without addr", func(c *Config) { c.Cache = CacheConfig{Backend: CacheRedis} }, true},
		{"cache disabled", func(c *Config) { c.Cache = CacheConfig{Backend: CacheNone} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
