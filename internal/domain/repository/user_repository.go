package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already exists")
)

// UserRepository defines the interface for user-related database operations.
// Implementations return ErrUserNotFound and ErrEmailTaken instead of driver errors.
type UserRepository interface {
	Insert(ctx context.Context, in entity.NewUser) (*entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindAll(ctx context.Context) ([]*entity.User, error)
	UpdateByID(ctx context.Context, id int64, patch entity.UserPatch) (*entity.User, error)
	DeleteByID(ctx context.Context, id int64) error
}
