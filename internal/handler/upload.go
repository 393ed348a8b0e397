package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/gallery-api/internal/auth"
	"github.com/sakif/gallery-api/internal/media"
	"github.com/sakif/gallery-api/internal/model"
	"github.com/sakif/gallery-api/internal/service"
)

// maxUploadBody caps the whole multipart request: ten files at the
// per-file limit plus headroom for field boundaries and titles.
const maxUploadBody = service.MaxBulkFiles*service.MaxFileSize + 1<<20

// multipartMemory is how much of a parsed form http keeps in memory
// before spilling to temp files.
const multipartMemory = 32 << 20

// UploadHandler serves the gallery endpoints. All routes sit behind
// RequireSession; every operation is scoped to the caller's identity.
//
//	POST   /uploads            → bulk upload (multipart)
//	GET    /uploads            → list in display order
//	PUT    /uploads/{id}       → edit title and/or replace image
//	DELETE /uploads/{id}       → delete and close the order gap
//	POST   /uploads/rearrange  → apply a full new ordering
type UploadHandler struct {
	uploads *service.UploadService
	logger  *slog.Logger
}

func NewUploadHandler(uploads *service.UploadService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		logger:  logger,
	}
}

type rearrangeRequest struct {
	Order []string `json:"order"`
}

type uploadsResponse struct {
	Message string         `json:"message,omitempty"`
	Uploads []model.Upload `json:"uploads"`
}

// HandleBulkUpload accepts up to ten images and appends them to the
// caller's gallery.
//
// HTTP: POST /uploads (multipart/form-data)
//
// Form fields:
//
//	images — the files (repeated field, at most 10, 10MB each)
//	titles — optional JSON array of strings, one per file; missing or
//	         empty entries get a generated "Image N" title
func (h *UploadHandler) HandleBulkUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	// Reject oversized bodies before buffering anything. ParseMultipartForm
	// reads through this limit and fails cleanly when it's exceeded.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid multipart body",
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	files, err := decodeFiles(headers)
	if err != nil {
		h.logger.Error("reading multipart files failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// titles is a JSON array in a plain form field. Absent means "no
	// titles given": pass empty strings so each file gets the fallback.
	titles := make([]string, len(files))
	if raw := r.FormValue("titles"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &titles); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "titles must be a JSON array of strings",
			})
			return
		}
	}

	created, err := h.uploads.BulkUpload(r.Context(), identity.UserID, files, titles)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadsResponse{
		Message: "upload complete",
		Uploads: created,
	})
}

// HandleList returns the caller's gallery in display order.
//
// HTTP: GET /uploads
func (h *UploadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	uploads, err := h.uploads.List(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	// An empty gallery serialises as [], not null.
	if uploads == nil {
		uploads = []model.Upload{}
	}
	writeJSON(w, http.StatusOK, uploadsResponse{Uploads: uploads})
}

// HandleEdit updates the title and/or replaces the image of one upload.
//
// HTTP: PUT /uploads/{id} (multipart/form-data)
//
// Form fields, both optional:
//
//	title — new title
//	image — replacement file
//
// An omitted field leaves that attribute unchanged. Position never
// changes through edit.
func (h *UploadHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid multipart body",
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	// "field absent" and "field empty" are different things for title:
	// absent means keep, so the service takes a pointer.
	var title *string
	if values, present := r.MultipartForm.Value["title"]; present && len(values) > 0 {
		title = &values[0]
	}

	var file *media.File
	if headers := r.MultipartForm.File["image"]; len(headers) > 0 {
		decoded, err := decodeFiles(headers[:1])
		if err != nil {
			h.logger.Error("reading replacement image failed", slog.String("error", err.Error()))
			writeError(w, err)
			return
		}
		file = &decoded[0]
	}

	updated, err := h.uploads.Edit(r.Context(), identity.UserID, id, title, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "upload updated",
		"upload":  updated,
	})
}

// HandleDelete removes one upload and closes the order gap it leaves.
//
// HTTP: DELETE /uploads/{id}
func (h *UploadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	if err := h.uploads.Delete(r.Context(), identity.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "upload deleted"})
}

// HandleRearrange applies the caller's desired full ordering.
//
// HTTP: POST /uploads/rearrange
// Body: {"order": ["id1", "id2", ...]} — every owned upload exactly once
func (h *UploadHandler) HandleRearrange(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req rearrangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	if err := h.uploads.Rearrange(r.Context(), identity.UserID, req.Order); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "gallery rearranged"})
}

// decodeFiles buffers each multipart file into a media.File. The service
// layer validates size and content type; this only moves bytes.
func decodeFiles(headers []*multipart.FileHeader) ([]media.File, error) {
	files := make([]media.File, 0, len(headers))
	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			return nil, errors.New("reading uploaded file")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.New("reading uploaded file")
		}
		files = append(files, media.File{
			Data:        data,
			ContentType: hdr.Header.Get("Content-Type"),
			Name:        hdr.Filename,
		})
	}
	return files, nil
}

// writeUnauthenticated covers the should-not-happen case of a gallery
// handler running without RequireSession in front of it.
func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: "invalid credentials",
	})
}
