// Package config loads the CLI configuration file.
//
// The file is TOML at ~/.config/branchline/config.toml (XDG aware) and
// selects the store and cache backends. A missing file yields defaults,
// so the CLI works out of the box with a local SQLite store.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const appName = "branchline"

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the CLI configuration.
type Config struct {
	Store StoreConfig `toml:"store"`
	Cache CacheConfig `toml:"cache"`
}

// StoreConfig selects and configures the store backend.
type StoreConfig struct {
	Backend  string `toml:"backend"`            // memory, sqlite, or mongo
	Path     string `toml:"path,omitempty"`     // sqlite database file
	URI      string `toml:"uri,omitempty"`      // mongo connection string
	Database string `toml:"database,omitempty"` // mongo database name
}

// CacheConfig selects and configures the commit read cache.
type CacheConfig struct {
	Backend  string `toml:"backend"`            // none, file, or redis
	Dir      string `toml:"dir,omitempty"`      // file cache directory
	Addr     string `toml:"addr,omitempty"`     // redis address
	Password string `toml:"password,omitempty"` // redis password
	DB       int    `toml:"db,omitempty"`       // redis database number
}

// Default returns the configuration used when no file exists: a SQLite
// store and file cache under the XDG data/cache directories.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: StoreSQLite,
			Path:    filepath.Join(dataDir(), "branchline.db"),
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     cacheDir(),
		},
	}
}

// DefaultPath returns the configuration file path, honoring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appName+".toml")
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// Load reads the configuration at path, filling unset fields from
// Default(). A missing file is not an error and yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks backend names and required backend parameters.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	case StoreMongo:
		if c.Store.URI == "" || c.Store.Database == "" {
			return fmt.Errorf("store.uri and store.database are required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (must be memory, sqlite, or mongo)", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case CacheNone:
	case CacheFile:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the file backend")
		}
	case CacheRedis:
		if c.Cache.Addr == "" {
			return fmt.Errorf("cache.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (must be none, file, or redis)", c.Cache.Backend)
	}
	return nil
}

// dataDir returns the XDG data directory for the app.
func dataDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", appName)
}

// cacheDir returns the XDG cache directory for the app.
func cacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".cache", appName)
}
