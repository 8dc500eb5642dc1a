package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/secure-login/internal/apperror"
	"github.com/sakif/secure-login/internal/model"
	"github.com/sakif/secure-login/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user, assigning an opaque ID and creation timestamp.
//
// DUPLICATE DETECTION AT THE CONSTRAINT:
// We do NOT check for an existing email here. The INSERT either succeeds or
// fails atomically on the UNIQUE constraint; a violation is translated to
// apperror.ErrConflict. This is what makes concurrent registrations for the
// same email safe — exactly one of the racing INSERTs can win.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email already registered")
		}
		// Note: err text may contain SQL fragments — callers log it
		// server-side but never forward it to the client.
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by their normalized (lower-cased, trimmed)
// email, including the password hash for credential verification.
// Returns apperror.ErrNotFound if no user exists with that email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return &u, nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetProfileByID retrieves the non-sensitive projection of a user.
//
// EXCLUSION AT THE QUERY BOUNDARY:
// The SELECT simply does not mention password_hash. The hash never enters
// process memory for a profile read, so no later serialization step can
// leak it. This is stronger than loading the full row and blanking a field.
func (db *DB) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, created_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", id, err)
	}

	return &p, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// violation. The driver exposes extended result codes; 2067 is
// SQLITE_CONSTRAINT_UNIQUE.
func isUniqueViolation(err error) bool {
	var se *sqlitedriver.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
