// Package rating computes a recipe's display rating from its review set.
package rating

import "github.com/tasteboard/tasteboard/internal/model"

// Average returns the arithmetic mean of the review ratings, or 0 for an
// empty set. The result is not rounded; presentation is the display layer's
// concern. The input slice is never modified, and the result does not depend
// on review order.
func Average(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}

	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
