package documents

import (
	"context"
	"errors"
	"time"

	"github.com/newtuple/dialogtuple/internal/docx"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// DocxContentType is stored alongside every uploaded document.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// UploadedMessage is returned after a successful upload.
const UploadedMessage = "File uploaded successfully"

var (
	ErrMissingFields   = errors.New("documents: fileBase64 and fileName are required")
	ErrInvalidFileType = errors.New("documents: only .docx files are allowed")
	ErrInvalidEncoding = errors.New("documents: file content is not valid base64")
	ErrUploadFailed    = errors.New("documents: upload failed")
	ErrListFailed      = errors.New("documents: list failed")
)

// UploadRequest carries a base64 encoded DOCX file.
type UploadRequest struct {
	FileName   string `json:"fileName"`
	FileBase64 string `json:"fileBase64"`
}

// UploadResult reports where the file was stored.
type UploadResult struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ConvertedFile is a stored DOCX document rendered as HTML.
type ConvertedFile struct {
	Name         string         `json:"name"`
	Content      string         `json:"content"`
	Warnings     []docx.Message `json:"warnings"`
	LastModified time.Time      `json:"lastModified"`
}

// ContentsResult lists converted documents. TotalFound counts .docx objects,
// TotalProcessed those that converted successfully.
type ContentsResult struct {
	Files          []ConvertedFile `json:"files"`
	TotalProcessed int             `json:"totalProcessed"`
	TotalFound     int             `json:"totalFound"`
}

// Converter renders DOCX bytes as HTML.
type Converter interface {
	Convert(ctx context.Context, data []byte) (*docx.Result, error)
}

// Service exposes the document upload and conversion workflows.
type Service interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	Contents(ctx context.Context) (*ContentsResult, error)
	Download(ctx context.Context, name string) ([]byte, *interfaces.Object, error)
}
