package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
)

const userColumns = `id, email, name, avatar_url, followers, is_active, registered_at`

// UserRepository implements repository.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, avatar_url, registered_at) VALUES (?, ?, ?, ?)`,
		in.Email, in.Name, in.AvatarURL, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, repository.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &entity.User{
		ID:           id,
		Email:        in.Email,
		Name:         in.Name,
		AvatarURL:    in.AvatarURL,
		Followers:    0,
		IsActive:     true,
		RegisteredAt: now,
	}, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateByID(ctx context.Context, id int64, patch entity.UserPatch) (*entity.User, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	var setClauses []string
	var args []any
	if patch.Email != nil {
		setClauses = append(setClauses, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.AvatarURL != nil {
		setClauses = append(setClauses, "avatar_url = ?")
		args = append(args, *patch.AvatarURL)
	}
	if patch.IsActive != nil {
		setClauses = append(setClauses, "is_active = ?")
		args = append(args, *patch.IsActive)
	}
	if patch.Followers != nil {
		setClauses = append(setClauses, "followers = ?")
		args = append(args, *patch.Followers)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(setClauses, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, repository.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return nil, repository.ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Followers, &u.IsActive, &u.RegisteredAt); err != nil {
		return nil, err
	}
	return u, nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ repository.UserRepository = (*UserRepository)(nil)
