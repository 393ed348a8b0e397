package model

import "time"

// Upload is one image in a user's gallery.
//
// ImageURL is the public, provider-hosted URL. MediaKey is the opaque
// object-store key kept only so the object can be deleted later; it is
// not exposed in API responses.
//
// ORDER INVARIANT:
// For a fixed user, the order values of all their uploads form the dense
// range 1..N — no duplicates, no gaps. New uploads append at N+1, delete
// compacts everything above the removed slot, and rearrange assigns a
// full permutation. The sqlite repository maintains this invariant
// transactionally; nothing else may write the order column.
type Upload struct {
	ID        string    `json:"id"       db:"id"`
	UserID    string    `json:"-"        db:"user_id"`
	Title     string    `json:"title"    db:"title"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	MediaKey  string    `json:"-"        db:"media_key"`
	Order     int       `json:"order"    db:"position"`
	CreatedAt time.Time `json:"-"        db:"created_at"`
	UpdatedAt time.Time `json:"-"        db:"updated_at"`
}
