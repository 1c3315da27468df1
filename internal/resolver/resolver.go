// Package resolver turns document leaves into terminal literal values,
// following references across collections, applying overrides, and guarding
// against cycles and runaway depth.
package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/prism/internal/cachemanager"
	"github.com/zjrosen/prism/internal/document"
	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/reference"
)

// Overrides supplies override literals by token identity (path joined with
// "/"). The override store satisfies this; the engine layers its preview
// overlay on top through the same interface.
type Overrides interface {
	Get(tokenName string) (string, bool)
}

// MaxDepth caps reference recursion as a secondary guard behind cycle
// detection. Real documents are a handful of hops deep.
const MaxDepth = 32

const cacheTTL = cachemanager.DefaultExpiration

// Resolver resolves leaves against a document index and an override store.
// Resolution is a pure function of (documents, overrides): it never mutates
// either, and identical inputs always produce identical outputs.
type Resolver struct {
	index     *document.Index
	overrides Overrides
	cache     cachemanager.CacheManager[string, string]
}

// New creates a resolver over the given index and override source. A nil
// overrides source means no overrides apply.
func New(index *document.Index, overrides Overrides) *Resolver {
	return &Resolver{index: index, overrides: overrides}
}

// EnableCache memoizes resolved values. The owner must flush the cache
// before any resolution pass that follows a mutation; Resolve stays pure
// between flushes.
func (r *Resolver) EnableCache(cache cachemanager.CacheManager[string, string]) {
	r.cache = cache
}

// FlushCache drops every memoized value.
func (r *Resolver) FlushCache(ctx context.Context) {
	if r.cache != nil {
		_ = r.cache.Flush(ctx)
	}
}

// Resolve resolves the leaf at (collection, path) to its terminal literal.
func (r *Resolver) Resolve(collection reference.Collection, path []string) (string, error) {
	key := cacheKey(collection, path)
	if r.cache != nil {
		if v, ok := r.cache.Get(context.Background(), key); ok {
			return v, nil
		}
	}

	value, err := r.resolve(collection, path, make(map[string]struct{}), 0)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		r.cache.Set(context.Background(), key, value, cacheTTL)
	}
	return value, nil
}

func (r *Resolver) resolve(collection reference.Collection, path []string, visiting map[string]struct{}, depth int) (string, error) {
	if depth > MaxDepth {
		return "", fmt.Errorf("%w: %s:%s exceeds %d hops",
			ErrResolutionTooDeep, collection, strings.Join(path, "."), MaxDepth)
	}

	leaf, ok := r.index.Lookup(collection, path)
	if !ok {
		return "", fmt.Errorf("%w: %s:%s", ErrUnresolvedPath, collection, strings.Join(path, "."))
	}

	ref, isRef := reference.Parse(leaf.Raw)
	if !isRef {
		literal := formatLiteral(leaf.Raw)
		// Overrides apply at token identities only; referenced paths reach
		// them through the token they ultimately point to.
		if collection == reference.CollectionTokens && r.overrides != nil {
			if v, ok := r.overrides.Get(strings.Join(path, "/")); ok {
				return v, nil
			}
		}
		return literal, nil
	}

	pathKey := string(collection) + ":" + strings.Join(path, ".")
	if _, seen := visiting[pathKey]; seen {
		return "", fmt.Errorf("%w: %s revisited", ErrCyclicReference, pathKey)
	}
	visiting[pathKey] = struct{}{}

	value, err := r.resolve(ref.Collection, ref.Path, visiting, depth+1)
	if err != nil {
		return "", err
	}

	log.Debug(log.CatResolver, "resolved reference", "from", pathKey, "to", ref.Key(), "value", value)
	return value, nil
}

func cacheKey(collection reference.Collection, path []string) string {
	return string(collection) + ":" + strings.Join(path, ".")
}

// formatLiteral renders a decoded JSON literal as the terminal string value.
// Numbers keep their shortest representation (16, 0.4), not Go's default
// float formatting.
func formatLiteral(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// NewCache builds the standard resolver memo cache.
func NewCache() cachemanager.CacheManager[string, string] {
	return cachemanager.NewInMemoryCacheManager[string, string](
		"resolver", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
}
