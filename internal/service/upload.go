package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/gallery-api/internal/apperror"
	"github.com/sakif/gallery-api/internal/media"
	"github.com/sakif/gallery-api/internal/model"
	"github.com/sakif/gallery-api/internal/repository"
)

const (
	// MaxBulkFiles caps one bulk request; the HTTP layer enforces the
	// same limit while decoding the multipart body.
	MaxBulkFiles = 10
	// MaxFileSize is the per-file limit (10MB).
	MaxFileSize = 10 << 20

	MaxTitleLength = 200
)

// UploadService orchestrates the gallery workflows: bulk upload, list,
// edit, delete, rearrange. Order maintenance itself lives in the
// repository, where it can be transactional; this layer validates input
// and sequences the media-store calls around the database writes.
type UploadService struct {
	uploads repository.UploadRepository
	store   media.Store
	logger  *slog.Logger
}

func NewUploadService(uploads repository.UploadRepository, store media.Store, logger *slog.Logger) *UploadService {
	return &UploadService{
		uploads: uploads,
		store:   store,
		logger:  logger,
	}
}

// BulkUpload stores each file in the media store and appends a record at
// the end of the caller's gallery, in input order.
//
// All validation happens before the first byte is uploaded, so a
// validation failure never leaves partial writes. A media or database
// failure mid-batch is different: items already committed stay committed
// (the client sees an error and can re-list to find out what landed).
// No rollback is attempted — the media store is not transactional.
func (s *UploadService) BulkUpload(ctx context.Context, userID string, files []media.File, titles []string) ([]model.Upload, error) {
	if len(files) == 0 {
		return nil, apperror.ValidationFailed("images", "no files uploaded")
	}
	if len(files) > MaxBulkFiles {
		return nil, apperror.ValidationFailed("images",
			fmt.Sprintf("at most %d files per request", MaxBulkFiles))
	}
	if len(titles) != len(files) {
		return nil, apperror.ValidationFailed("titles", "title count must match file count")
	}
	for i, f := range files {
		if len(f.Data) == 0 {
			return nil, apperror.ValidationFailed("images", fmt.Sprintf("file %d is empty", i+1))
		}
		if len(f.Data) > MaxFileSize {
			return nil, apperror.ValidationFailed("images", fmt.Sprintf("file %d exceeds the 10MB limit", i+1))
		}
		if !strings.HasPrefix(f.ContentType, "image/") {
			return nil, apperror.ValidationFailed("images", "only image files are allowed")
		}
		if len(titles[i]) > MaxTitleLength {
			return nil, apperror.ValidationFailed("titles",
				fmt.Sprintf("titles must be %d characters or less", MaxTitleLength))
		}
	}

	created := make([]model.Upload, 0, len(files))
	for i, f := range files {
		title := strings.TrimSpace(titles[i])
		if title == "" {
			title = fmt.Sprintf("Image %d", i+1)
		}

		obj, err := s.store.Upload(ctx, f)
		if err != nil {
			s.logger.Error("media upload failed mid-batch",
				slog.String("userID", userID),
				slog.Int("fileIndex", i),
				slog.Int("committed", len(created)),
				slog.String("error", err.Error()),
			)
			return created, fmt.Errorf("uploading file %d: %w", i+1, err)
		}

		upload := &model.Upload{
			UserID:   userID,
			Title:    title,
			ImageURL: obj.URL,
			MediaKey: obj.Key,
		}
		// Position = count+1 is computed inside the insert's own
		// transaction, so N files get N consecutive trailing positions
		// even with concurrent activity on the same gallery.
		if err := s.uploads.CreateInOrder(ctx, upload); err != nil {
			s.logger.Error("upload insert failed mid-batch",
				slog.String("userID", userID),
				slog.Int("fileIndex", i),
				slog.String("error", err.Error()),
			)
			return created, fmt.Errorf("saving file %d: %w", i+1, err)
		}
		created = append(created, *upload)
	}

	s.logger.Info("bulk upload complete",
		slog.String("userID", userID),
		slog.Int("count", len(created)),
	)
	return created, nil
}

// List returns the caller's gallery in display order. Read-only.
func (s *UploadService) List(ctx context.Context, userID string) ([]model.Upload, error) {
	uploads, err := s.uploads.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("listing uploads failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	return uploads, nil
}

// Edit updates the title and/or replaces the image of an owned upload.
// nil means "leave unchanged". Order is never touched by edit.
//
// MEDIA ORDERING (upload-then-swap):
// The replacement object is uploaded first, the row is updated to point
// at it, and only then is the old object deleted. A failed upload leaves
// the record fully intact; a failed delete leaks one orphaned object
// instead of losing the user's image. The delete is therefore best
// effort — its failure is logged, not surfaced.
func (s *UploadService) Edit(ctx context.Context, userID, id string, title *string, file *media.File) (*model.Upload, error) {
	if err := validateUploadID(id); err != nil {
		return nil, err
	}

	upload, err := s.uploads.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		t := strings.TrimSpace(*title)
		if len(t) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		if t != "" {
			upload.Title = t
		}
	}

	oldKey := ""
	if file != nil {
		if len(file.Data) > MaxFileSize {
			return nil, apperror.ValidationFailed("image", "file exceeds the 10MB limit")
		}
		if !strings.HasPrefix(file.ContentType, "image/") {
			return nil, apperror.ValidationFailed("image", "only image files are allowed")
		}

		obj, err := s.store.Upload(ctx, *file)
		if err != nil {
			s.logger.Error("replacement upload failed",
				slog.String("uploadID", id),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("uploading replacement image: %w", err)
		}
		oldKey = upload.MediaKey
		upload.ImageURL = obj.URL
		upload.MediaKey = obj.Key
	}

	if err := s.uploads.Update(ctx, upload); err != nil {
		return nil, err
	}

	if oldKey != "" {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("orphaned media object left behind",
				slog.String("uploadID", id),
				slog.String("mediaKey", oldKey),
				slog.String("error", err.Error()),
			)
		}
	}

	return upload, nil
}

// Delete removes an owned upload: the media object first, then the row
// plus the compaction of everything above it in one transaction. If the
// media delete fails the record survives untouched and the caller gets
// an internal error — retrying is safe.
func (s *UploadService) Delete(ctx context.Context, userID, id string) error {
	if err := validateUploadID(id); err != nil {
		return err
	}

	upload, err := s.uploads.GetOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if upload.MediaKey != "" {
		if err := s.store.Delete(ctx, upload.MediaKey); err != nil {
			s.logger.Error("media delete failed",
				slog.String("uploadID", id),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("deleting media object: %w", err)
		}
	}

	if err := s.uploads.DeleteAndCompact(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("upload deleted",
		slog.String("userID", userID),
		slog.String("uploadID", id),
	)
	return nil
}

// Rearrange applies the caller's desired full ordering: ids[i] moves to
// position i+1. The list must be an exact permutation of the caller's
// owned set; anything else fails validation with no changes.
func (s *UploadService) Rearrange(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return apperror.ValidationFailed("order", "order must not be empty")
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if err := validateUploadID(id); err != nil {
			return apperror.ValidationFailed("order", "order contains an invalid upload id")
		}
		// Duplicates would pass the repository's cardinality check while
		// skipping some record entirely — reject them here.
		if _, dup := seen[id]; dup {
			return apperror.ValidationFailed("order", "order contains a duplicate upload id")
		}
		seen[id] = struct{}{}
	}

	if err := s.uploads.Rearrange(ctx, userID, ids); err != nil {
		return err
	}

	s.logger.Info("gallery rearranged",
		slog.String("userID", userID),
		slog.Int("count", len(ids)),
	)
	return nil
}

// validateUploadID rejects syntactically malformed ids before they hit
// the database. Record ids are xids; anything that doesn't parse can't
// possibly exist.
func validateUploadID(id string) error {
	if _, err := xid.FromString(id); err != nil {
		return apperror.ValidationFailed("id", "invalid upload id")
	}
	return nil
}
