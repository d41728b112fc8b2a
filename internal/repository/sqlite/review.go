package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/repository"
)

// ReviewRepo implements repository.ReviewRepository on the shared pool.
type ReviewRepo struct {
	db *DB
}

var _ repository.ReviewRepository = (*ReviewRepo)(nil)

func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// Upsert relies on the UNIQUE(user_id, recipe_id) constraint: the conflict
// clause turns a resubmission into an in-place update that keeps the original
// id and created_at. The row count therefore never grows past one per
// (user, recipe) pair, no matter how often a user resubmits.
func (r *ReviewRepo) Upsert(ctx context.Context, review *model.Review) error {
	now := time.Now()
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, recipe_id, rating, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, recipe_id) DO UPDATE SET
			rating = excluded.rating,
			comment = excluded.comment,
			updated_at = excluded.updated_at`,
		xid.New().String(), review.UserID, review.RecipeID, review.Rating,
		review.Comment, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting review: %w", err)
	}

	// Read the canonical row back so the caller sees the persisted id and
	// created_at, which differ from the insert values on the update path.
	err = r.db.conn.QueryRowContext(ctx, `
		SELECT id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE user_id = ? AND recipe_id = ?`,
		review.UserID, review.RecipeID).Scan(
		&review.ID, &review.Rating, &review.Comment,
		&review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: reading back review: %w", err)
	}
	return nil
}

func (r *ReviewRepo) ListByRecipe(ctx context.Context, recipeID string) ([]model.Review, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT v.id, v.user_id, v.recipe_id, v.rating, v.comment, v.created_at,
			v.updated_at, COALESCE(u.name, ''), COALESCE(u.image, '')
		FROM reviews v
		LEFT JOIN users u ON u.id = v.user_id
		WHERE v.recipe_id = ?
		ORDER BY v.created_at DESC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var review model.Review
		var user model.UserSummary
		err := rows.Scan(&review.ID, &review.UserID, &review.RecipeID,
			&review.Rating, &review.Comment, &review.CreatedAt,
			&review.UpdatedAt, &user.Name, &user.Image)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning review: %w", err)
		}
		review.User = &user
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
