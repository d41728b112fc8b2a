package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/repository"
)

// RecipeRepo implements repository.RecipeRepository on the shared pool.
type RecipeRepo struct {
	db *DB
}

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

func NewRecipeRepo(db *DB) *RecipeRepo {
	return &RecipeRepo{db: db}
}

const recipeColumns = `id, slug, title, description, content, ingredients, steps,
	nutrition, cook_time, prep_time, servings, video, author_id, created_at, updated_at`

func (r *RecipeRepo) Create(ctx context.Context, recipe *model.Recipe) error {
	recipe.ID = xid.New().String()
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	ingredients, steps, err := encodeRecipeLists(recipe)
	if err != nil {
		return err
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (id, slug, title, description, content, ingredients,
			steps, nutrition, cook_time, prep_time, servings, video, author_id,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID, recipe.Slug, recipe.Title, recipe.Description,
		rawOrNil(recipe.Content), ingredients, steps, rawOrNil(recipe.Nutrition),
		recipe.CookTime, recipe.PrepTime, recipe.Servings, recipe.Video,
		nullIfEmpty(recipe.AuthorID), recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting recipe: %w", err)
	}

	if err := insertRecipeCategories(ctx, tx, recipe.ID, recipe.Categories); err != nil {
		return err
	}

	for i := range recipe.Media {
		m := &recipe.Media[i]
		m.ID = xid.New().String()
		m.RecipeID = recipe.ID
		m.CreatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO media (id, recipe_id, url, public_id, type, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.RecipeID, m.URL, m.PublicID, m.Type, m.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting media: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing recipe: %w", err)
	}
	return nil
}

func (r *RecipeRepo) GetBySlug(ctx context.Context, slug string) (*model.Recipe, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE slug = ?`, slug)

	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", slug)
		}
		return nil, fmt.Errorf("sqlite: querying recipe by slug: %w", err)
	}

	recipes := []model.Recipe{*recipe}
	if err := attachRecipeRelations(ctx, r.db.conn, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

func (r *RecipeRepo) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)

	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: querying recipe by id: %w", err)
	}
	return recipe, nil
}

func (r *RecipeRepo) List(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
	query := `SELECT ` + prefixColumns("r") + ` FROM recipes r`
	var args []any

	if filter.CategorySlug != "" {
		query += `
			JOIN recipe_categories rc ON rc.recipe_id = r.id
			JOIN categories c ON c.id = rc.category_id AND c.slug = ?`
		args = append(args, filter.CategorySlug)
	}
	if filter.AuthorID != "" {
		query += ` WHERE r.author_id = ?`
		args = append(args, filter.AuthorID)
	}
	query += ` ORDER BY r.created_at DESC`

	recipes, err := queryRecipes(ctx, r.db.conn, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	if err := attachRecipeRelations(ctx, r.db.conn, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *RecipeRepo) Search(ctx context.Context, query, categorySlug string) ([]model.Recipe, error) {
	sqlQuery := `SELECT ` + prefixColumns("r") + ` FROM recipes r
		WHERE (LOWER(r.title) LIKE '%' || LOWER(?) || '%'
			OR LOWER(r.description) LIKE '%' || LOWER(?) || '%')`
	args := []any{query, query}

	if categorySlug != "" {
		sqlQuery += ` AND r.id IN (
			SELECT rc.recipe_id FROM recipe_categories rc
			JOIN categories c ON c.id = rc.category_id
			WHERE c.slug = ?)`
		args = append(args, categorySlug)
	}
	sqlQuery += ` ORDER BY r.created_at DESC`

	recipes, err := queryRecipes(ctx, r.db.conn, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching recipes: %w", err)
	}
	if err := attachRecipeRelations(ctx, r.db.conn, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *RecipeRepo) Update(ctx context.Context, recipe *model.Recipe) error {
	recipe.UpdatedAt = time.Now()

	ingredients, steps, err := encodeRecipeLists(recipe)
	if err != nil {
		return err
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET slug = ?, title = ?, description = ?, content = ?, ingredients = ?,
			steps = ?, nutrition = ?, cook_time = ?, prep_time = ?, servings = ?,
			video = ?, updated_at = ?
		WHERE id = ?`,
		recipe.Slug, recipe.Title, recipe.Description, rawOrNil(recipe.Content),
		ingredients, steps, rawOrNil(recipe.Nutrition), recipe.CookTime,
		recipe.PrepTime, recipe.Servings, recipe.Video, recipe.UpdatedAt,
		recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating recipe: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("recipe", recipe.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_categories WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("sqlite: clearing category links: %w", err)
	}
	if err := insertRecipeCategories(ctx, tx, recipe.ID, recipe.Categories); err != nil {
		return err
	}

	// A nil Media slice means "leave media alone"; an empty one clears the
	// recipe's images.
	if recipe.Media != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM media WHERE recipe_id = ? AND type = ?`,
			recipe.ID, model.MediaImage); err != nil {
			return fmt.Errorf("sqlite: clearing media: %w", err)
		}
		for i := range recipe.Media {
			m := &recipe.Media[i]
			m.ID = xid.New().String()
			m.RecipeID = recipe.ID
			m.CreatedAt = recipe.UpdatedAt
			_, err = tx.ExecContext(ctx, `
				INSERT INTO media (id, recipe_id, url, public_id, type, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				m.ID, m.RecipeID, m.URL, m.PublicID, m.Type, m.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("sqlite: inserting media: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing recipe update: %w", err)
	}
	return nil
}

func (r *RecipeRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("recipe", id)
	}
	return nil
}

func (r *RecipeRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM recipes WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking recipe slug: %w", err)
	}
	return exists, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*model.Recipe, error) {
	var (
		recipe             model.Recipe
		content, nutrition []byte
		ingredients, steps []byte
		authorID           sql.NullString
	)
	err := row.Scan(
		&recipe.ID, &recipe.Slug, &recipe.Title, &recipe.Description,
		&content, &ingredients, &steps, &nutrition,
		&recipe.CookTime, &recipe.PrepTime, &recipe.Servings, &recipe.Video,
		&authorID, &recipe.CreatedAt, &recipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	recipe.AuthorID = authorID.String

	// Stored JSON fields may be native structures or string-encoded; the
	// normalization boundary lives here so callers only see structured data.
	if recipe.Content, err = model.NormalizeJSONField(content); err != nil {
		return nil, fmt.Errorf("recipe %s content: %w", recipe.ID, err)
	}
	if recipe.Nutrition, err = model.NormalizeJSONField(nutrition); err != nil {
		return nil, fmt.Errorf("recipe %s nutrition: %w", recipe.ID, err)
	}
	if err = model.DecodeJSONField(ingredients, &recipe.Ingredients); err != nil {
		return nil, fmt.Errorf("recipe %s ingredients: %w", recipe.ID, err)
	}
	if err = model.DecodeJSONField(steps, &recipe.Steps); err != nil {
		return nil, fmt.Errorf("recipe %s steps: %w", recipe.ID, err)
	}
	return &recipe, nil
}

func queryRecipes(ctx context.Context, conn *sql.DB, query string, args ...any) ([]model.Recipe, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *recipe)
	}
	return recipes, rows.Err()
}

// attachRecipeRelations loads authors, categories, media and reviews for the
// given recipes in four batch queries instead of one round-trip per recipe.
func attachRecipeRelations(ctx context.Context, conn *sql.DB, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]any, len(recipes))
	byID := make(map[string]*model.Recipe, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		byID[recipes[i].ID] = &recipes[i]
	}
	in := placeholders(len(ids))

	rows, err := conn.QueryContext(ctx, `
		SELECT rc.recipe_id, c.id, c.name, c.slug
		FROM recipe_categories rc
		JOIN categories c ON c.id = rc.category_id
		WHERE rc.recipe_id IN (`+in+`)
		ORDER BY c.name`, ids...)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe categories: %w", err)
	}
	for rows.Next() {
		var recipeID string
		var cat model.CategorySummary
		if err := rows.Scan(&recipeID, &cat.ID, &cat.Name, &cat.Slug); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning recipe category: %w", err)
		}
		if r := byID[recipeID]; r != nil {
			r.Categories = append(r.Categories, cat)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: loading recipe categories: %w", err)
	}

	rows, err = conn.QueryContext(ctx, `
		SELECT id, recipe_id, url, public_id, type, created_at
		FROM media
		WHERE recipe_id IN (`+in+`)
		ORDER BY created_at`, ids...)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe media: %w", err)
	}
	for rows.Next() {
		var m model.Media
		if err := rows.Scan(&m.ID, &m.RecipeID, &m.URL, &m.PublicID, &m.Type, &m.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning media: %w", err)
		}
		if r := byID[m.RecipeID]; r != nil {
			r.Media = append(r.Media, m)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: loading recipe media: %w", err)
	}

	rows, err = conn.QueryContext(ctx, `
		SELECT v.id, v.user_id, v.recipe_id, v.rating, v.comment, v.created_at,
			v.updated_at, COALESCE(u.name, ''), COALESCE(u.image, '')
		FROM reviews v
		LEFT JOIN users u ON u.id = v.user_id
		WHERE v.recipe_id IN (`+in+`)
		ORDER BY v.created_at DESC`, ids...)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe reviews: %w", err)
	}
	for rows.Next() {
		var review model.Review
		var user model.UserSummary
		err := rows.Scan(&review.ID, &review.UserID, &review.RecipeID,
			&review.Rating, &review.Comment, &review.CreatedAt,
			&review.UpdatedAt, &user.Name, &user.Image)
		if err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning review: %w", err)
		}
		review.User = &user
		if r := byID[review.RecipeID]; r != nil {
			r.Reviews = append(r.Reviews, review)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: loading recipe reviews: %w", err)
	}

	authorIDs := make([]any, 0, len(recipes))
	seen := make(map[string]bool)
	for i := range recipes {
		if id := recipes[i].AuthorID; id != "" && !seen[id] {
			seen[id] = true
			authorIDs = append(authorIDs, id)
		}
	}
	if len(authorIDs) > 0 {
		rows, err = conn.QueryContext(ctx, `
			SELECT id, name, image FROM users
			WHERE id IN (`+placeholders(len(authorIDs))+`)`, authorIDs...)
		if err != nil {
			return fmt.Errorf("sqlite: loading recipe authors: %w", err)
		}
		authors := make(map[string]model.UserSummary)
		for rows.Next() {
			var id string
			var author model.UserSummary
			if err := rows.Scan(&id, &author.Name, &author.Image); err != nil {
				rows.Close()
				return fmt.Errorf("sqlite: scanning author: %w", err)
			}
			authors[id] = author
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("sqlite: loading recipe authors: %w", err)
		}
		for i := range recipes {
			if author, ok := authors[recipes[i].AuthorID]; ok {
				author := author
				recipes[i].Author = &author
			}
		}
	}

	return nil
}

func insertRecipeCategories(ctx context.Context, tx *sql.Tx, recipeID string, categories []model.CategorySummary) error {
	for _, cat := range categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_categories (recipe_id, category_id)
			VALUES (?, ?)`, recipeID, cat.ID)
		if err != nil {
			return fmt.Errorf("sqlite: linking category %s: %w", cat.ID, err)
		}
	}
	return nil
}

func encodeRecipeLists(recipe *model.Recipe) (ingredients, steps []byte, err error) {
	if recipe.Ingredients == nil {
		recipe.Ingredients = []model.Ingredient{}
	}
	if recipe.Steps == nil {
		recipe.Steps = []model.Step{}
	}
	if ingredients, err = json.Marshal(recipe.Ingredients); err != nil {
		return nil, nil, fmt.Errorf("sqlite: encoding ingredients: %w", err)
	}
	if steps, err = json.Marshal(recipe.Steps); err != nil {
		return nil, nil, fmt.Errorf("sqlite: encoding steps: %w", err)
	}
	return ingredients, steps, nil
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func prefixColumns(alias string) string {
	return alias + `.id, ` + alias + `.slug, ` + alias + `.title, ` +
		alias + `.description, ` + alias + `.content, ` + alias + `.ingredients, ` +
		alias + `.steps, ` + alias + `.nutrition, ` + alias + `.cook_time, ` +
		alias + `.prep_time, ` + alias + `.servings, ` + alias + `.video, ` +
		alias + `.author_id, ` + alias + `.created_at, ` + alias + `.updated_at`
}
