package http

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/newtuple/dialogtuple/internal/documents"
	"github.com/newtuple/dialogtuple/internal/logging"
)

func (api *API) registerDocumentRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "documents")
	mux.HandleFunc("POST "+root, api.handleUpload)
	mux.HandleFunc("GET "+root, api.handleContents)
	mux.HandleFunc("GET "+root+"/{name}", api.handleDownload)
}

func (api *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	if api.documents == nil {
		serviceUnavailable(w)
		return
	}
	var payload documents.UploadRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	result, err := api.documents.Upload(r.Context(), payload)
	if err != nil {
		logging.WithDocument(api.logger.WithContext(r.Context()), payload.FileName).
			Warn("upload rejected", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *API) handleContents(w http.ResponseWriter, r *http.Request) {
	if api.documents == nil {
		serviceUnavailable(w)
		return
	}
	result, err := api.documents.Contents(r.Context())
	if err != nil {
		api.logger.WithContext(r.Context()).Error("document listing failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	if api.documents == nil {
		serviceUnavailable(w)
		return
	}
	data, obj, err := api.documents.Download(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	contentType := documents.DocxContentType
	if obj != nil && obj.ContentType != "" {
		contentType = obj.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if obj != nil {
		w.Header().Set("Content-Disposition", contentDisposition(obj.Name))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// contentDisposition quotes or RFC 2231 encodes name for the header.
func contentDisposition(name string) string {
	if value := mime.FormatMediaType("attachment", map[string]string{"filename": name}); value != "" {
		return value
	}
	return "attachment"
}
