package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/repository"
)

// CategoryRepo implements repository.CategoryRepository on the shared pool.
type CategoryRepo struct {
	db *DB
}

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

func NewCategoryRepo(db *DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Create(ctx context.Context, category *model.Category) error {
	category.ID = xid.New().String()
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO categories (id, slug, name, description, public_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.ID, category.Slug, category.Name, category.Description,
		category.PublicID, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting category: %w", err)
	}
	return nil
}

func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT c.id, c.slug, c.name, c.description, c.public_id, c.created_at,
			c.updated_at,
			(SELECT COUNT(*) FROM recipe_categories rc WHERE rc.category_id = c.id)
		FROM categories c
		WHERE c.slug = ?`, slug).Scan(
		&category.ID, &category.Slug, &category.Name, &category.Description,
		&category.PublicID, &category.CreatedAt, &category.UpdatedAt,
		&category.RecipeCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("category", slug)
		}
		return nil, fmt.Errorf("sqlite: querying category by slug: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepo) RecipePage(ctx context.Context, categoryID string, page repository.Page) ([]model.Recipe, error) {
	query := `SELECT ` + prefixColumns("r") + ` FROM recipes r
		JOIN recipe_categories rc ON rc.recipe_id = r.id
		WHERE rc.category_id = ?
		ORDER BY r.created_at DESC
		LIMIT ? OFFSET ?`

	recipes, err := queryRecipes(ctx, r.db.conn, query, categoryID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: paging category recipes: %w", err)
	}
	if err := attachRecipeRelations(ctx, r.db.conn, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT c.id, c.slug, c.name, c.description, c.public_id, c.created_at,
			c.updated_at,
			(SELECT COUNT(*) FROM recipe_categories rc WHERE rc.category_id = c.id)
		FROM categories c
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var category model.Category
		err := rows.Scan(&category.ID, &category.Slug, &category.Name,
			&category.Description, &category.PublicID, &category.CreatedAt,
			&category.UpdatedAt, &category.RecipeCount)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepo) Update(ctx context.Context, category *model.Category) error {
	category.UpdatedAt = time.Now()

	result, err := r.db.conn.ExecContext(ctx, `
		UPDATE categories
		SET slug = ?, name = ?, description = ?, public_id = ?, updated_at = ?
		WHERE id = ?`,
		category.Slug, category.Name, category.Description, category.PublicID,
		category.UpdatedAt, category.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("category", category.ID)
	}
	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("category", id)
	}
	return nil
}

func (r *CategoryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking category slug: %w", err)
	}
	return exists, nil
}
