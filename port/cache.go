package port

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/anyvalue"
)

func errConverterMissing(typeName string) error {
	return thicket.WithStack(fmt.Errorf("no string converter registered for %s", typeName))
}

// defaultLiteralCacheSize bounds the literal-port parse cache: one entry
// per distinct (type, literal text) pair parsed through one LiteralCache,
// which is small even for large trees since literal port values
// rarely vary per-instance.
const defaultLiteralCacheSize = 2048

type literalKey struct {
	typeName string
	text     string
}

// LiteralCache memoizes parsed literal port values by (declared type,
// source text), avoiding re-running a type converter (e.g. a JSON
// unmarshal) on every tick for a port whose literal value never changes.
type LiteralCache struct {
	entries *lru.Cache[literalKey, anyvalue.Any]
}

// NewLiteralCache constructs a LiteralCache with the package's default
// bound.
func NewLiteralCache() *LiteralCache {
	c, err := lru.New[literalKey, anyvalue.Any](defaultLiteralCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// defaultLiteralCacheSize never is.
		panic(err)
	}
	return &LiteralCache{entries: c}
}

// Parse returns the cached conversion of text via info's converter,
// computing and caching it on first use.
func (c *LiteralCache) Parse(info anyvalue.TypeInfo, text string) (anyvalue.Any, error) {
	key := literalKey{typeName: info.Name, text: text}
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}
	if info.Converter == nil {
		return anyvalue.Any{}, errConverterMissing(info.Name)
	}
	v, err := info.Converter(text)
	if err != nil {
		return anyvalue.Any{}, err
	}
	c.entries.Add(key, v)
	return v, nil
}
