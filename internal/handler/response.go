package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/forgo/vidshare/api/internal/model"
)

// maxJSONBody bounds JSON request bodies
const maxJSONBody = 64 << 10

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// MessageResponse is the payload of responses that carry no resource
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	WriteJSON(w, status, DataResponse{
		Data:  data,
		Links: links,
	})
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// decodeProblem converts a DecodeJSON failure into a response
func decodeProblem(err error) *model.ProblemDetails {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return model.NewPayloadTooLargeError(tooLarge.Limit)
	}
	return model.NewBadRequestError("invalid request body")
}
