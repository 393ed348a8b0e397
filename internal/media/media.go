// Package media abstracts the external object store that hosts uploaded
// images. The rest of the application only sees this interface: bytes go
// in, a public URL plus an opaque key come out, and the key is enough to
// delete the object later.
package media

import "context"

// File is one decoded upload handed to the core by the HTTP layer:
// raw bytes plus the metadata the store needs. Keeping this a plain
// struct (not *multipart.FileHeader) keeps the workflow independent of
// the wire-level multipart decoding.
type File struct {
	Data        []byte
	ContentType string
	Name        string // original filename, informational only
}

// StoredObject identifies an uploaded object.
type StoredObject struct {
	URL string // public URL to serve the image from
	Key string // opaque key used for deletion
}

// Store is the media store adapter.
type Store interface {
	// Upload stores the file and returns its public URL and key.
	Upload(ctx context.Context, file File) (StoredObject, error)
	// Delete removes the object with the given key. Deleting a key that
	// no longer exists is not an error.
	Delete(ctx context.Context, key string) error
}
