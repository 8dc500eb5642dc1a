// Package repository defines the persistence interfaces consumed by the
// service layer. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/secure-login/internal/model"
)

// UserRepository is the credential store.
//
// DUPLICATE RACE (TOCTOU):
// Create must resolve concurrent registrations for the same email
// atomically via the store's unique constraint, returning
// apperror.ErrConflict on a duplicate. Callers may do a GetByEmail
// fast-path check first for a friendlier error, but that check is a UX
// optimization — the constraint is the source of truth.
type UserRepository interface {
	// Create persists a new user, assigning ID and CreatedAt.
	Create(ctx context.Context, user *model.User) error

	// GetByEmail returns the user with the given normalized email,
	// including the password hash (needed for login verification).
	// Returns apperror.ErrNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByID returns the user with the given internal ID.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetProfileByID returns the non-sensitive projection of a user.
	// The password hash is excluded by the query itself, not filtered
	// out of a loaded User afterwards.
	GetProfileByID(ctx context.Context, id string) (*model.Profile, error)
}
