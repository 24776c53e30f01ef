// Package cache stores rendered collection responses under their
// fingerprints for a fixed TTL.
package cache

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kumar-mithlesh/headless-api/internal/config"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
)

// DefaultNamespace prefixes every collection entry.
const DefaultNamespace = "api_v2_collection_cache"

// ResponseCache is a namespaced TTL cache of response bodies. Concurrent
// fills of one key race harmlessly: both writers render the same bytes and
// the last one wins.
type ResponseCache struct {
	items     *gocache.Cache
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// New builds a response cache from configuration.
func New(cfg config.CacheConfig, log *slog.Logger) *ResponseCache {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	if log == nil {
		log = slog.Default()
	}
	return &ResponseCache{
		items:     gocache.New(ttl, 2*ttl),
		namespace: ns,
		ttl:       ttl,
		logger:    log.With("component", "response_cache"),
	}
}

// Fetch returns the cached body for key, or renders, stores and returns it.
// hit reports whether the body came from the cache. Render errors are not
// cached.
func (c *ResponseCache) Fetch(ctx context.Context, key string, render func() ([]byte, error)) (body []byte, hit bool, err error) {
	full := c.namespace + ":" + key
	log := logger.FromContextOrDefault(ctx, c.logger)

	if cached, ok := c.items.Get(full); ok {
		if b, ok := cached.([]byte); ok {
			log.Debug("collection cache hit", "key", key)
			return b, true, nil
		}
	}

	body, err = render()
	if err != nil {
		return nil, false, err
	}
	c.items.Set(full, body, c.ttl)
	log.Debug("collection cache fill", "key", key, "bytes", len(body))
	return body, false, nil
}

// Len returns the number of live entries.
func (c *ResponseCache) Len() int {
	return c.items.ItemCount()
}

// Flush drops every entry.
func (c *ResponseCache) Flush() {
	c.items.Flush()
}
