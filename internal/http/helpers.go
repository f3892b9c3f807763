package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/newtuple/dialogtuple/internal/blog"
	"github.com/newtuple/dialogtuple/internal/documents"
	"github.com/newtuple/dialogtuple/internal/mail"
	"github.com/newtuple/dialogtuple/internal/objectstore"
)

// Uploads arrive base64 encoded inside JSON, so the limit sits well above
// the largest .docx we expect.
const maxBodyBytes = 32 << 20

var errInvalidJSON = errors.New("http: invalid JSON body")

type errorResponse struct {
	Error string `json:"error"`
}

// joinPath builds an absolute route path. Empty segments are dropped.
func joinPath(base, suffix string) string {
	return path.Join("/", strings.TrimSpace(base), strings.TrimSpace(suffix))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	if r.Body == nil {
		return errInvalidJSON
	}
	defer r.Body.Close()

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return errInvalidJSON
	default:
		return errors.Join(errInvalidJSON, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, message := describeError(err)
	writeJSON(w, status, errorResponse{Error: message})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error: "Method Not Allowed. Only " + allowed + " requests are accepted.",
	})
}

// errorRule maps a sentinel onto the status and message clients have
// always seen. A rule with cause set appends the text after the sentinel.
type errorRule struct {
	target  error
	status  int
	message string
	cause   bool
}

var errorRules = []errorRule{
	{errInvalidJSON, http.StatusBadRequest, "Invalid JSON body.", false},
	{documents.ErrMissingFields, http.StatusBadRequest, "Missing required fields. Please provide both fileBase64 and fileName.", false},
	{documents.ErrInvalidFileType, http.StatusBadRequest, "Invalid file type. Only .docx files are allowed.", false},
	{documents.ErrInvalidEncoding, http.StatusBadRequest, "Invalid file content. fileBase64 must be base64 encoded.", false},
	{mail.ErrInvalidEmail, http.StatusBadRequest, "Invalid email address.", false},
	{documents.ErrUploadFailed, http.StatusInternalServerError, "Failed to upload file: ", true},
	{documents.ErrListFailed, http.StatusInternalServerError, "Failed to list files: ", true},
	{objectstore.ErrObjectNotFound, http.StatusNotFound, "Not found.", false},
	{blog.ErrPostNotFound, http.StatusNotFound, "Not found.", false},
}

func describeError(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, "Server error: unknown error"
	}
	for _, rule := range errorRules {
		if !errors.Is(err, rule.target) {
			continue
		}
		if rule.cause {
			return rule.status, rule.message + after(err.Error(), rule.target.Error()+": ")
		}
		return rule.status, rule.message
	}
	if goerrors.IsCategory(err, goerrors.CategoryValidation) {
		detail := err
		if inner := errors.Unwrap(err); inner != nil {
			detail = inner
		}
		return http.StatusBadRequest, "Validation failed: " + detail.Error()
	}
	if errors.Is(err, mail.ErrDeliveryFailed) {
		return http.StatusInternalServerError, "Failed to send email"
	}
	return http.StatusInternalServerError, "Server error: " + err.Error()
}

// after returns the text following marker in msg, or msg itself.
func after(msg, marker string) string {
	if _, rest, ok := strings.Cut(msg, marker); ok {
		return rest
	}
	return msg
}

// parseIntQuery returns fallback for values that are not integers. Range
// checks are left to the service.
func parseIntQuery(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
