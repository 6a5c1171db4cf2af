// Package media stores account images in object storage.
//
// Uploads arrive as multipart parts, are staged to a temporary file, pushed
// to the Store, and the staged file is removed whether or not the push
// succeeded. Removal of staged files and of replaced remote objects is best
// effort: failures are logged and never surfaced to the caller.
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrForeignObject is returned when asked to delete a URL the store did not issue.
	ErrForeignObject = errors.New("object not owned by this store")
	// ErrEmptyUpload is returned for zero-byte uploads.
	ErrEmptyUpload = errors.New("upload is empty")
	// ErrUnsupportedType is returned for uploads that are not images.
	ErrUnsupportedType = errors.New("unsupported media type")
)

// Kind groups objects by what they are used for
type Kind string

const (
	KindProfileImage Kind = "avatars"
	KindCoverImage   Kind = "covers"
)

// Object describes a stored object
type Object struct {
	Key string
	URL string
}

// Store is the remote object store holding account images
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error)
	// Delete removes an object previously returned by Put, addressed by its URL
	Delete(ctx context.Context, url string) error
}

// NewKey builds a collision-free object key for an upload
func NewKey(kind Kind, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 {
		ext = ""
	}
	return string(kind) + "/" + uuid.NewString() + ext
}

// IsImageType reports whether a content type is an accepted image type
func IsImageType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
