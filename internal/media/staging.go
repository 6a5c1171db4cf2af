package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// StagedFile is an upload written to local disk ahead of the remote push
type StagedFile struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

// Open opens the staged file for reading
func (f *StagedFile) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Remove deletes the staged file. Failures are logged, not returned.
func (f *StagedFile) Remove() {
	if f == nil || f.Path == "" {
		return
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove staged upload", "path", f.Path, "error", err)
	}
}

// Stager writes incoming uploads to a temporary directory
type Stager struct {
	dir      string
	maxBytes int64
}

// NewStager creates a stager writing into dir (os.TempDir when empty).
// Uploads larger than maxBytes are rejected.
func NewStager(dir string, maxBytes int64) *Stager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Stager{dir: dir, maxBytes: maxBytes}
}

// TooLargeError is returned when an upload exceeds the stager's limit
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("upload exceeds %d bytes", e.Limit)
}

// sniffLen is how much of an upload is inspected to detect its type
const sniffLen = 512

// Stage copies src into a new temporary file. The declared content type is
// only a first filter; the stored type is the one sniffed from the leading
// bytes. On any failure the partial file is removed and nothing is returned.
func (s *Stager) Stage(src io.Reader, filename, contentType string) (*StagedFile, error) {
	if !IsImageType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	tmp, err := os.CreateTemp(s.dir, stagedPattern+filepath.Ext(filepath.Base(filename)))
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	staged := &StagedFile{
		Path:     tmp.Name(),
		Filename: filepath.Base(filename),
	}

	reader := src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}
	head := make([]byte, sniffLen)
	headLen, readErr := io.ReadFull(reader, head)
	if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
		readErr = nil
	}
	head = head[:headLen]

	var n int64
	copyErr := readErr
	if copyErr == nil {
		var written int
		written, copyErr = tmp.Write(head)
		n = int64(written)
	}
	if copyErr == nil {
		var rest int64
		rest, copyErr = io.Copy(tmp, reader)
		n += rest
	}
	closeErr := tmp.Close()

	switch {
	case copyErr != nil:
		staged.Remove()
		return nil, fmt.Errorf("failed to stage upload: %w", copyErr)
	case closeErr != nil:
		staged.Remove()
		return nil, fmt.Errorf("failed to stage upload: %w", closeErr)
	case s.maxBytes > 0 && n > s.maxBytes:
		staged.Remove()
		return nil, &TooLargeError{Limit: s.maxBytes}
	case n == 0:
		staged.Remove()
		return nil, ErrEmptyUpload
	}

	sniffed := http.DetectContentType(head)
	if !IsImageType(sniffed) {
		staged.Remove()
		return nil, fmt.Errorf("%w: content is %s", ErrUnsupportedType, sniffed)
	}

	staged.ContentType = sniffed
	staged.Size = n
	return staged, nil
}

// Publish pushes a staged file to the store under a fresh key for kind and
// removes the staged file afterwards, whatever the outcome.
func Publish(ctx context.Context, store Store, kind Kind, staged *StagedFile) (*Object, error) {
	defer staged.Remove()

	f, err := staged.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open staged upload: %w", err)
	}
	defer f.Close()

	return store.Put(ctx, NewKey(kind, staged.Filename), f, staged.Size, staged.ContentType)
}

// stagedPattern matches files created by Stage
const stagedPattern = "upload-*"

// Dir returns the staging directory
func (s *Stager) Dir() string {
	return s.dir
}

// Sweep removes staged files last modified more than olderThan ago. Such
// files are left behind only when the process dies mid-request.
func (s *Stager) Sweep(olderThan time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, stagedPattern))
	if err != nil {
		return 0, fmt.Errorf("failed to list staged uploads: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to sweep staged upload", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
