package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gallery-api/internal/apperror"
	"github.com/sakif/gallery-api/internal/model"
	"github.com/sakif/gallery-api/internal/repository"
)

// compile-time check that *DB implements repository.UploadRepository
var _ repository.UploadRepository = (*DB)(nil)

const uploadColumns = "id, user_id, title, image_url, media_key, position, created_at, updated_at"

// CreateInOrder appends the upload at the end of its user's gallery.
//
// The count and the insert happen in one transaction, so the computed
// position is still correct when the row lands even if another request
// for the same user is in flight. A batch of N files calling this N
// times gets N consecutive trailing positions.
func (db *DB) CreateInOrder(ctx context.Context, upload *model.Upload) error {
	now := time.Now()
	upload.ID = xid.New().String()
	upload.CreatedAt = now
	upload.UpdatedAt = now

	return db.inTx(ctx, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM uploads WHERE user_id = ?`, upload.UserID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("sqlite: counting uploads for user %s: %w", upload.UserID, err)
		}
		upload.Order = count + 1

		_, err = tx.ExecContext(ctx,
			`INSERT INTO uploads (id, user_id, title, image_url, media_key, position, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			upload.ID,
			upload.UserID,
			upload.Title,
			upload.ImageURL,
			upload.MediaKey,
			upload.Order,
			upload.CreatedAt,
			upload.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting upload: %w", err)
		}
		return nil
	})
}

// ListByUser returns the user's gallery in display order.
func (db *DB) ListByUser(ctx context.Context, userID string) ([]model.Upload, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+uploadColumns+` FROM uploads
		 WHERE user_id = ?
		 ORDER BY position ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing uploads for user %s: %w", userID, err)
	}
	defer rows.Close()

	var uploads []model.Upload
	for rows.Next() {
		var u model.Upload
		if err := rows.Scan(
			&u.ID, &u.UserID, &u.Title, &u.ImageURL, &u.MediaKey,
			&u.Order, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning upload row: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating uploads: %w", err)
	}

	return uploads, nil
}

// GetOwned returns the upload only when it belongs to userID. A record
// owned by someone else is reported as not found, never as forbidden —
// the API does not reveal that the id exists at all.
func (db *DB) GetOwned(ctx context.Context, id, userID string) (*model.Upload, error) {
	var u model.Upload
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+uploadColumns+` FROM uploads WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&u.ID, &u.UserID, &u.Title, &u.ImageURL, &u.MediaKey,
		&u.Order, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("upload", id)
		}
		return nil, fmt.Errorf("sqlite: getting upload %s: %w", id, err)
	}
	return &u, nil
}

// Update persists title and image fields. The position column is
// deliberately absent from the SET list — only CreateInOrder,
// DeleteAndCompact, and Rearrange may write it.
func (db *DB) Update(ctx context.Context, upload *model.Upload) error {
	upload.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE uploads
		 SET title = ?, image_url = ?, media_key = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		upload.Title,
		upload.ImageURL,
		upload.MediaKey,
		upload.UpdatedAt,
		upload.ID,
		upload.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating upload %s: %w", upload.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("upload", upload.ID)
	}
	return nil
}

// DeleteAndCompact removes the owned upload and closes the gap it
// leaves: every remaining upload of the same user with a higher position
// is decremented by one, restoring the dense 1..N range. Both steps run
// in one transaction — no reader outside it ever observes a gap.
func (db *DB) DeleteAndCompact(ctx context.Context, id, userID string) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		var position int
		err := tx.QueryRowContext(ctx,
			`SELECT position FROM uploads WHERE id = ? AND user_id = ?`,
			id, userID,
		).Scan(&position)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("upload", id)
			}
			return fmt.Errorf("sqlite: locating upload %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM uploads WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting upload %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE uploads SET position = position - 1
			 WHERE user_id = ? AND position > ?`,
			userID, position); err != nil {
			return fmt.Errorf("sqlite: compacting positions for user %s: %w", userID, err)
		}
		return nil
	})
}

// Rearrange applies a full reordering: ids[i] gets position i+1.
//
// The transaction first verifies cardinality — the supplied list must
// cover the user's entire gallery — then checks that every id resolves
// to an owned row via RowsAffected on its UPDATE. Any mismatch rolls the
// whole transaction back, leaving existing positions unchanged.
// (Duplicate ids are rejected by the service before this is called;
// they would otherwise pass the cardinality check.)
func (db *DB) Rearrange(ctx context.Context, userID string, ids []string) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM uploads WHERE user_id = ?`, userID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("sqlite: counting uploads for user %s: %w", userID, err)
		}
		if count != len(ids) {
			return apperror.ValidationFailed("order",
				fmt.Sprintf("order must list all %d uploads, got %d", count, len(ids)))
		}

		for i, id := range ids {
			result, err := tx.ExecContext(ctx,
				`UPDATE uploads SET position = ?, updated_at = ?
				 WHERE id = ? AND user_id = ?`,
				i+1, time.Now(), id, userID)
			if err != nil {
				return fmt.Errorf("sqlite: repositioning upload %s: %w", id, err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("sqlite: checking rows affected: %w", err)
			}
			if rowsAffected == 0 {
				// Not owned by this user (or doesn't exist) — reject the
				// whole reordering.
				return apperror.ValidationFailed("order", "order contains an unknown upload id")
			}
		}
		return nil
	})
}
