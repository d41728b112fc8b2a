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

// UserRepo implements repository.UserRepository on the shared pool.
type UserRepo struct {
	db *DB
}

var _ repository.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO users (id, name, email, image, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Image, user.Role,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT id, name, email, image, role, created_at, updated_at
		FROM users
		WHERE id = ?`, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Image, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: querying user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) PromoteAdmins(ctx context.Context, emails []string) error {
	if len(emails) == 0 {
		return nil
	}

	args := make([]any, 0, len(emails)+1)
	args = append(args, model.RoleAdmin)
	for _, email := range emails {
		args = append(args, email)
	}

	_, err := r.db.conn.ExecContext(ctx, `
		UPDATE users SET role = ?
		WHERE email IN (`+placeholders(len(emails))+`)`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: promoting admins: %w", err)
	}
	return nil
}
