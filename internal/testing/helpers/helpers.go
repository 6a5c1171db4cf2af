package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/forgo/vidshare/api/internal/model"
	"github.com/forgo/vidshare/api/pkg/jwt"
)

// ============================================================================
// Token Helpers
// ============================================================================

const (
	TestAccessSecret  = "test-access-secret"
	TestRefreshSecret = "test-refresh-secret"
	TestIssuer        = "vidshare-test"
)

// NewTestJWTService creates a token service with fixed test secrets
func NewTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()
	return NewTestJWTServiceWithExpiry(t, 15*time.Minute, 240*time.Hour)
}

// NewTestJWTServiceWithExpiry creates a token service with the given lifetimes
func NewTestJWTServiceWithExpiry(t *testing.T, access, refresh time.Duration) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewService(jwt.Config{
		AccessSecret:  TestAccessSecret,
		AccessExpiry:  access,
		RefreshSecret: TestRefreshSecret,
		RefreshExpiry: refresh,
		Issuer:        TestIssuer,
	})
	if err != nil {
		t.Fatalf("helpers: failed to create jwt service: %v", err)
	}
	return svc
}

// AccessTokenFor signs an access token for account
func AccessTokenFor(t *testing.T, svc *jwt.Service, account *model.Account) string {
	t.Helper()
	token, err := svc.IssueAccessToken(jwt.AccessIdentity{
		AccountID:      account.ID,
		Handle:         account.Handle,
		ContactAddress: account.ContactAddress,
		DisplayName:    account.DisplayName,
	})
	if err != nil {
		t.Fatalf("helpers: failed to sign access token: %v", err)
	}
	return token
}

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t           *testing.T
	method      string
	path        string
	body        io.Reader
	contentType string
	headers     map[string]string
	cookies     []*http.Cookie
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets a JSON-encoded request body
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.t.Helper()
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		rb.t.Fatalf("helpers: failed to marshal body: %v", err)
	}
	rb.body = bytes.NewReader(bodyBytes)
	rb.contentType = "application/json"
	return rb
}

// WithMultipart sets a multipart/form-data body
func (rb *RequestBuilder) WithMultipart(form *MultipartForm) *RequestBuilder {
	rb.t.Helper()
	body, contentType := form.encode(rb.t)
	rb.body = body
	rb.contentType = contentType
	return rb
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithBearer sets the Authorization header
func (rb *RequestBuilder) WithBearer(token string) *RequestBuilder {
	return rb.WithHeader("Authorization", "Bearer "+token)
}

// WithCookie attaches a cookie
func (rb *RequestBuilder) WithCookie(name, value string) *RequestBuilder {
	rb.cookies = append(rb.cookies, &http.Cookie{Name: name, Value: value})
	return rb
}

// WithCookies attaches cookies, typically taken from a previous response
func (rb *RequestBuilder) WithCookies(cookies []*http.Cookie) *RequestBuilder {
	for _, c := range cookies {
		rb.WithCookie(c.Name, c.Value)
	}
	return rb
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	req := httptest.NewRequest(rb.method, rb.path, rb.body)
	if rb.contentType != "" {
		req.Header.Set("Content-Type", rb.contentType)
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	for _, c := range rb.cookies {
		req.AddCookie(c)
	}
	return req
}

// MultipartForm collects fields and files for a multipart request
type MultipartForm struct {
	fields map[string]string
	files  []multipartFile
}

type multipartFile struct {
	field, filename, contentType string
	content                      []byte
}

// NewMultipartForm creates an empty form
func NewMultipartForm() *MultipartForm {
	return &MultipartForm{fields: make(map[string]string)}
}

// Field adds a text field
func (f *MultipartForm) Field(name, value string) *MultipartForm {
	f.fields[name] = value
	return f
}

// File adds a file part
func (f *MultipartForm) File(field, filename, contentType string, content []byte) *MultipartForm {
	f.files = append(f.files, multipartFile{field: field, filename: filename, contentType: contentType, content: content})
	return f
}

func (f *MultipartForm) encode(t *testing.T) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range f.fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatalf("helpers: failed to write field: %v", err)
		}
	}
	for _, file := range f.files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		header.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("helpers: failed to create part: %v", err)
		}
		if _, err := part.Write(file.content); err != nil {
			t.Fatalf("helpers: failed to write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("helpers: failed to close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertProblemDetails validates an RFC 9457 Problem Details error response
// and returns it
func AssertProblemDetails(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) *model.ProblemDetails {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)

	var problem model.ProblemDetails
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v. Body: %s", err, string(bodyBytes))
	}

	if problem.Status != expectedStatus {
		t.Errorf("expected problem.status %d, got %d", expectedStatus, problem.Status)
	}
	if expectedCode != 0 && problem.Code != expectedCode {
		t.Errorf("expected problem.code %d, got %d", expectedCode, problem.Code)
	}
	return &problem
}

// AssertValidationError checks for a validation error on a specific field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	problem := AssertProblemDetails(t, resp, http.StatusUnprocessableEntity, model.ErrCodeValidation)
	for _, fe := range problem.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected validation error on field %q, but not found. Errors: %+v", field, problem.Errors)
}

// DecodeResponse decodes the response body into the given struct
func DecodeResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, string(bodyBytes))
	}
}

// GetDataFromResponse extracts the "data" field from a standard response
func GetDataFromResponse(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response struct {
		Data map[string]interface{} `json:"data"`
	}
	DecodeResponse(t, resp, &response)
	return response.Data
}

// ResponseCookie returns the named cookie set by a response, or nil
func ResponseCookie(resp *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range resp.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
