// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Email and phone are each globally unique — a user can log in with
// either one. PasswordHash holds the bcrypt output (salt included); the
// plaintext password is never stored anywhere.
//
// The `json:"-"` tag on PasswordHash keeps the hash out of every JSON
// response, no matter which handler serialises the struct.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Phone        string    `json:"phone"     db:"phone"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicProfile is the subset of User that API responses expose.
type PublicProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Public returns the response-safe view of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
	}
}
