// Package repository defines the persistence interfaces the service
// layer programs against. The sqlite subpackage implements them; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/gallery-api/internal/model"
)

type UserRepository interface {
	// Create inserts a new user. Fails with apperror.ErrConflict when the
	// email or phone is already taken.
	Create(ctx context.Context, user *model.User) error
	// GetUserByID returns the user or apperror.ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmailOrPhone returns the first user matching either non-empty
	// identifier, or apperror.ErrNotFound.
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.User, error)
	// UpdatePasswordHash replaces the stored hash for the user.
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type UploadRepository interface {
	// CreateInOrder inserts the upload with order = current count + 1 for
	// its user, computed atomically with the insert.
	CreateInOrder(ctx context.Context, upload *model.Upload) error
	// ListByUser returns all uploads of the user, ascending by order.
	ListByUser(ctx context.Context, userID string) ([]model.Upload, error)
	// GetOwned returns the upload only if it belongs to the user;
	// apperror.ErrNotFound otherwise.
	GetOwned(ctx context.Context, id, userID string) (*model.Upload, error)
	// Update persists title/image changes. The order column is never
	// touched by Update.
	Update(ctx context.Context, upload *model.Upload) error
	// DeleteAndCompact removes the owned upload and decrements the order
	// of every remaining upload of the same user above it, atomically.
	DeleteAndCompact(ctx context.Context, id, userID string) error
	// Rearrange assigns order = position+1 for each id per its position,
	// atomically. ids must be a permutation of the user's full owned set;
	// fails with apperror.ErrValidation otherwise, changing nothing.
	Rearrange(ctx context.Context, userID string, ids []string) error
}
