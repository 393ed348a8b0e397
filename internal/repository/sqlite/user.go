package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gallery-api/internal/apperror"
	"github.com/sakif/gallery-api/internal/model"
	"github.com/sakif/gallery-api/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = "id, name, phone, email, password_hash, created_at, updated_at"

// Create inserts a new user, generating the ID and timestamps here so
// the caller gets the canonical record back in the same struct.
//
// Uniqueness of email and phone is enforced by the UNIQUE constraints;
// a constraint violation is translated to apperror.ErrConflict so the
// service doesn't need a separate existence probe (which would race with
// a concurrent signup anyway).
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, phone, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Phone,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a user with that email or phone already exists")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// FindByEmailOrPhone looks a user up by either identifier. Empty
// identifiers never match anything — the empty string is not a valid
// email or phone, and matching it would let a blank login form hit an
// arbitrary row.
func (db *DB) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE (email = ? AND ? != '') OR (phone = ? AND ? != '')`,
		email, email, phone, phone)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email+phone)
		}
		return nil, fmt.Errorf("sqlite: finding user by email/phone: %w", err)
	}
	return u, nil
}

// UpdatePasswordHash replaces the stored hash. The only mutation this
// core ever applies to a user record.
func (db *DB) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating password hash for %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// scanUser reads one user row. Works for both QueryRow and Rows via the
// shared Scan signature.
func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Phone,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation detects a UNIQUE constraint failure. modernc's
// driver reports it in the error text ("UNIQUE constraint failed"),
// which is stable enough to match on.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
