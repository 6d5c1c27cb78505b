package kv

import (
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/plog"
	"github.com/genivi/pclient/pkg/resolve"
)

// cacheKey identifies one backend handle: (storage-class, ldbid, policy).
// ldbid is only significant for the shared-group store; it is zeroed for
// local and shared-public entries so they share one cache slot.
type cacheKey struct {
	db    resolve.DB
	ldbid uint32
}

// Cache is the open-on-demand backend handle cache. Concurrent workers may
// race to create the same entry; the second creator discards its own and
// uses the winner's, a compare-and-discard race that mirrors the rest of
// this library's open-on-demand caches (RCT tables, handle tables).
type Cache struct {
	mu       sync.Mutex
	backends map[cacheKey]Backend
	paths    pclconfig.Paths
	redis    *redis.Client
}

// NewCache builds an empty cache rooted at paths. redisClient may be nil;
// if nil, shared-storage lookups fail with db-error-internal instead of
// silently falling back to a local file (this library never fabricates a
// shared backend it cannot reach other processes through).
func NewCache(paths pclconfig.Paths, redisClient *redis.Client) *Cache {
	return &Cache{
		backends: make(map[cacheKey]Backend),
		paths:    paths,
		redis:    redisClient,
	}
}

// Get returns the backend for db/ldbid, opening it on first use.
func (c *Cache) Get(db resolve.DB, ldbid uint32, readOnly bool) (Backend, error) {
	key := normalizeKey(db, ldbid)

	c.mu.Lock()
	if b, ok := c.backends[key]; ok {
		c.mu.Unlock()
		return b, nil
	}
	c.mu.Unlock()

	b, err := c.open(db, ldbid, readOnly)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.backends[key]; ok {
		// another worker won the race; discard our own open handle.
		b.Close()
		return existing, nil
	}
	c.backends[key] = b
	return b, nil
}

func normalizeKey(db resolve.DB, ldbid uint32) cacheKey {
	if db == resolve.DBSharedGroupCache || db == resolve.DBSharedGroupWriteThrough {
		return cacheKey{db: db, ldbid: ldbid}
	}
	return cacheKey{db: db}
}

func (c *Cache) open(db resolve.DB, ldbid uint32, readOnly bool) (Backend, error) {
	switch db {
	// User stores are always opened create-if-missing: the handle is cached
	// and shared by later writes, and a first read must not fail on a store
	// that does not exist yet.
	case resolve.DBLocalCache:
		return OpenBolt(c.paths.LocalCacheDB(), false)
	case resolve.DBLocalWriteThrough:
		return OpenBolt(c.paths.LocalWriteThroughDB(), false)
	case resolve.DBSharedPublicCache, resolve.DBSharedPublicWriteThrough:
		if c.redis == nil {
			return nil, fmt.Errorf("no redis client configured for shared-public store")
		}
		name := c.paths.SharedPublicCacheDB()
		if db == resolve.DBSharedPublicWriteThrough {
			name += ".wt"
		}
		return OpenRedis(c.redis, name), nil
	case resolve.DBSharedGroupCache, resolve.DBSharedGroupWriteThrough:
		if c.redis == nil {
			return nil, fmt.Errorf("no redis client configured for shared-group store")
		}
		name := c.paths.SharedGroupCacheDB(fmt.Sprintf("%x", ldbid))
		if db == resolve.DBSharedGroupWriteThrough {
			name += ".wt"
		}
		return OpenRedis(c.redis, name), nil
	}
	return nil, fmt.Errorf("unknown backend class %v", db)
}

// CloseAll closes every cached backend, as the event loop does during
// prepare-shutdown and process deinit.
func (c *Cache) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, b := range c.backends {
		if err := b.Close(); err != nil {
			plog.WithComponent("kv").Warn().Err(err).Msg("error closing backend during shutdown")
		}
		delete(c.backends, key)
	}
}
