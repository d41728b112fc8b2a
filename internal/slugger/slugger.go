// Package slugger derives unique URL-safe slugs from titles.
package slugger

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
)

// ExistsFunc reports whether a slug is already taken. Implementations query
// the data store; tests supply a closure over a map.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Make converts a title into its base slug: lowercase, ASCII, hyphen-joined.
func Make(title string) string {
	return slug.Make(title)
}

// Unique derives a slug from title that is not taken according to exists.
// On collision a numeric suffix is appended, starting at 2: "my-dish",
// "my-dish-2", "my-dish-3", …
func Unique(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := Make(title)

	candidate := base
	for n := 2; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slugger: checking slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
