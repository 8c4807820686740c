package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/branchline/branchline/pkg/cache"
	"github.com/branchline/branchline/pkg/config"
	"github.com/branchline/branchline/pkg/errors"
	"github.com/branchline/branchline/pkg/store/mongo"
	"github.com/branchline/branchline/pkg/store/sqlite"
	"github.com/branchline/branchline/pkg/vcs"
)

// session bundles the store, cache, and engine for one command run.
type session struct {
	engine *vcs.Engine
	store  vcs.Store
	cache  cache.Cache
}

// openSession loads the config and wires up the configured store and
// cache. Callers must Close the session when done.
func (c *CLI) openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	cch, err := openCache(ctx, cfg.Cache)
	if err != nil {
		store.Close()
		return nil, err
	}

	wrapped := vcs.WithCommitCache(store, cch, c.Logger)
	return &session{
		engine: vcs.NewEngine(wrapped, c.Logger),
		store:  wrapped,
		cache:  cch,
	}, nil
}

func (s *session) Close() error {
	err := s.store.Close()
	if cerr := s.cache.Close(); err == nil {
		err = cerr
	}
	return err
}

func openStore(ctx context.Context, cfg config.StoreConfig) (vcs.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return vcs.NewMemoryStore(), nil
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, err
		}
		return sqlite.Open(cfg.Path)
	case config.StoreMongo:
		return mongo.Open(ctx, cfg.URI, cfg.Database)
	default:
		return nil, errors.New(errors.ErrCodeInternal, "unknown store backend %q", cfg.Backend)
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheFile:
		return cache.NewFileCache(cfg.Dir)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	default:
		return nil, errors.New(errors.ErrCodeInternal, "unknown cache backend %q", cfg.Backend)
	}
}

// resolveBranch looks a branch up by name within the CLI's playbook.
func (c *CLI) resolveBranch(ctx context.Context, s *session, name string) (*vcs.Branch, error) {
	b, err := s.store.BranchByName(ctx, c.Playbook, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBranchNotFound, err, "branch %q not found in playbook %q", name, c.Playbook)
	}
	return b, nil
}
