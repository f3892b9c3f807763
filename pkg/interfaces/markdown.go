package interfaces

import (
	"context"
	"time"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown rendering. Sanitize runs the rendered HTML
// through a UGC policy; SafeMode only suppresses raw HTML passthrough.
type ParseOptions struct {
	Extensions []string `json:"extensions,omitempty"`
	Sanitize   bool     `json:"sanitize,omitempty"`
	HardWraps  bool     `json:"hard_wraps,omitempty"`
	SafeMode   bool     `json:"safe_mode,omitempty"`
}

// Document represents a Markdown file with parsed metadata and content.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores the SHA-256 digest of the original file content.
	Checksum []byte
	// Warnings lists non-fatal metadata problems found while parsing.
	Warnings []string
}

// FrontMatter models the metadata block at the top of a blog post. Date keeps
// the author supplied value, normalised to YYYY-MM-DD when it parses.
type FrontMatter struct {
	Title         string         `json:"title"`
	Slug          string         `json:"slug,omitempty"`
	Date          string         `json:"date,omitempty"`
	Author        string         `json:"author,omitempty"`
	AuthorPicture string         `json:"authorPicture,omitempty"`
	Description   string         `json:"description,omitempty"`
	Image         string         `json:"image,omitempty"`
	Tags          []string       `json:"tags"`
	Raw           map[string]any `json:"raw,omitempty"`
}

// MarkdownService loads Markdown documents from a content root and renders
// them into HTML.
type MarkdownService interface {
	Load(ctx context.Context, path string) (*Document, error)
	LoadDirectory(ctx context.Context, dir string) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
}
