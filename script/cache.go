package script

import (
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

// defaultCacheTTL and defaultCacheMaxEntries bound the compiled-script
// cache: pre/post condition scripts are re-parsed on every registration
// but ticked far more often than that, so caching the parse once per
// distinct source string avoids re-lexing hot-path scripts on every tick.
const (
	defaultCacheTTL        = time.Hour
	defaultCacheMaxEntries = 4096
)

// Cache memoizes Parse by source text, built with expirable-cache's
// NewCache().WithMaxKeys().WithTTL().WithLRU() chain for bounded,
// time-limited memoization.
type Cache struct {
	entries cache.Cache[string, Node]
}

// NewCache constructs a Cache with the package's default bounds.
func NewCache() *Cache {
	return &Cache{
		entries: cache.NewCache[string, Node]().WithMaxKeys(defaultCacheMaxEntries).WithTTL(defaultCacheTTL).WithLRU(),
	}
}

// Compile parses src, reusing a cached AST when src has been seen before.
func (c *Cache) Compile(src string) (Node, error) {
	if node, found := c.entries.Get(src); found {
		return node, nil
	}
	node, err := Parse(src)
	if err != nil {
		return nil, err
	}
	c.entries.Set(src, node, 0)
	return node, nil
}
