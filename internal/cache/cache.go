// Package cache provides a best-effort key/value cache in front of the data
// store.
//
// The cache is never a source of truth: any failure (backend unreachable,
// entry corrupt, serialization error) degrades to a miss or a silent no-op,
// and the caller falls through to the store. Requests must
// never fail because the cache is down; at worst they get slower.
package cache

import (
	"context"
	"time"
)

// Cache is the contract services program against. Get reports a hit with its
// boolean; no method ever returns an error to the caller.
type Cache interface {
	// Get loads the entry under key into dest. Returns false on a miss,
	// an expired entry, or any failure to read or decode.
	Get(ctx context.Context, key string, dest any) bool

	// Set stores value under key with the given TTL. String values are
	// stored as-is to avoid double-encoding; everything else is JSON.
	Set(ctx context.Context, key string, value any, ttl time.Duration)

	// Delete removes keys. Deleting an absent key is a no-op.
	Delete(ctx context.Context, keys ...string)

	// DeleteMatching removes every key matching a glob pattern,
	// e.g. "search:*".
	DeleteMatching(ctx context.Context, pattern string)

	Close() error
}

// Cached entry lifetimes. Exact values are tunable, not a contract.
const (
	RecipeTTL     = time.Hour
	CategoryTTL   = time.Hour
	SearchTTL     = 15 * time.Minute
	CategoriesTTL = time.Minute
)

// Key namespace. Deployed caches already hold entries under these names, so
// the shapes below must be preserved.
const (
	RecipesKey      = "recipes"
	CategoriesKey   = "categories"
	SearchPattern   = "search:*"
	CategoryPattern = "category:*"
)

// RecipeKey returns the cache key for a single recipe projection.
func RecipeKey(slug string) string {
	return "recipe:" + slug
}

// CategoryKey returns the cache key for a category's page-independent
// metadata. Recipe pages are always fetched fresh, so pagination parameters
// do not appear in the key.
func CategoryKey(slug string) string {
	return "category:" + slug
}

// SearchKey returns the cache key for a search result set. The category slug
// is folded in only when the search was restricted to a category.
func SearchKey(query, categorySlug string) string {
	if categorySlug == "" {
		return "search:" + query
	}
	return "search:" + query + ":" + categorySlug
}
