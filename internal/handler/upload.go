package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/forgo/vidshare/api/internal/media"
)

// maxFieldBytes bounds a single non-file multipart field
const maxFieldBytes = 4 << 10

// errNotMultipart is returned for requests without a multipart body
var errNotMultipart = errors.New("request is not multipart/form-data")

// uploadForm is a parsed multipart request. Files are staged on disk and
// must be released with removeFiles once the request is done.
type uploadForm struct {
	values map[string]string
	files  map[string]*media.StagedFile
}

// value returns a text field with surrounding whitespace removed
func (f *uploadForm) value(name string) string {
	return strings.TrimSpace(f.values[name])
}

// rawValue returns a text field exactly as submitted
func (f *uploadForm) rawValue(name string) string {
	return f.values[name]
}

func (f *uploadForm) file(name string) *media.StagedFile {
	return f.files[name]
}

func (f *uploadForm) removeFiles() {
	for _, staged := range f.files {
		staged.Remove()
	}
}

// isMultipart reports whether r carries a multipart/form-data body
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// readUploadForm streams a multipart body, staging the parts named in
// fileFields and keeping every other part as a string value. Unknown file
// parts are drained and ignored.
func readUploadForm(w http.ResponseWriter, r *http.Request, stager *media.Stager, maxBody int64, fileFields ...string) (*uploadForm, error) {
	if !isMultipart(r) {
		return nil, errNotMultipart
	}
	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	form := &uploadForm{
		values: make(map[string]string),
		files:  make(map[string]*media.StagedFile),
	}
	wanted := make(map[string]bool, len(fileFields))
	for _, name := range fileFields {
		wanted[name] = true
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			form.removeFiles()
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}

		if err := form.readPart(part, stager, wanted); err != nil {
			_ = part.Close()
			form.removeFiles()
			return nil, err
		}
		_ = part.Close()
	}
}

func (f *uploadForm) readPart(part *multipart.Part, stager *media.Stager, wanted map[string]bool) error {
	name := part.FormName()
	if name == "" {
		return nil
	}

	if part.FileName() == "" {
		data, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
		if err != nil {
			return fmt.Errorf("invalid multipart body: %w", err)
		}
		if len(data) > maxFieldBytes {
			return fmt.Errorf("field %s is too long", name)
		}
		f.values[name] = string(data)
		return nil
	}

	if !wanted[name] || f.files[name] != nil {
		_, err := io.Copy(io.Discard, part)
		return err
	}

	staged, err := stager.Stage(part, part.FileName(), part.Header.Get("Content-Type"))
	if err != nil {
		return err
	}
	f.files[name] = staged
	return nil
}

// uploadProblem maps a readUploadForm failure to a status. Body-limit and
// per-file limit errors become 413; everything else is the caller's fault.
func uploadProblem(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &media.TooLargeError{Limit: tooLarge.Limit}
	}
	var fileTooLarge *media.TooLargeError
	if errors.As(err, &fileTooLarge) ||
		errors.Is(err, media.ErrEmptyUpload) ||
		errors.Is(err, media.ErrUnsupportedType) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadForm, err)
}

var errBadForm = errors.New("invalid form data")
