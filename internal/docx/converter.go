// Package docx converts Word (OOXML) documents into semantic HTML. Only
// structure is kept: headings, paragraphs, lists, tables, links and basic
// run formatting. Layout and styling are dropped.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/newtuple/dialogtuple/internal/markdown"
)

var (
	ErrInvalidDocument = errors.New("docx: invalid document")
	ErrMissingBody     = errors.New("docx: word/document.xml not found")
)

const (
	documentPart  = "word/document.xml"
	stylesPart    = "word/styles.xml"
	numberingPart = "word/numbering.xml"
	relsPart      = "word/_rels/document.xml.rels"
)

// Message is a non-fatal note produced during conversion.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Result holds converted HTML and any conversion messages.
type Result struct {
	HTML     string    `json:"html"`
	Messages []Message `json:"messages"`
}

// Warnings returns the message texts in order.
func (r *Result) Warnings() []string {
	if r == nil || len(r.Messages) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(r.Messages))
	for _, msg := range r.Messages {
		out = append(out, msg.Message)
	}
	return out
}

// Option configures a Converter.
type Option func(*Converter)

// WithStyleMap maps additional paragraph style names (case-insensitive) to
// HTML tags such as "blockquote" or "h2".
func WithStyleMap(styles map[string]string) Option {
	return func(c *Converter) {
		for name, tag := range styles {
			c.paragraphStyles[normalizeStyleName(name)] = strings.ToLower(strings.TrimSpace(tag))
		}
	}
}

// WithPolicy overrides the sanitising policy applied to the rendered HTML.
// A nil policy disables sanitising.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(c *Converter) {
		c.policy = policy
	}
}

// Converter turns DOCX archives into HTML. It is safe for concurrent use.
type Converter struct {
	paragraphStyles map[string]string
	runStyles       map[string]string
	policy          *bluemonday.Policy
}

// NewConverter returns a Converter with the default style map.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		paragraphStyles: defaultParagraphStyles(),
		runStyles:       defaultRunStyles(),
		policy:          markdown.SanitizePolicy(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Convert reads a DOCX archive and renders its body as HTML.
func (c *Converter) Convert(ctx context.Context, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	parts := indexParts(archive)

	body, ok := parts[documentPart]
	if !ok {
		return nil, ErrMissingBody
	}

	pkg := &packageParts{}
	if f, ok := parts[stylesPart]; ok {
		if pkg.styles, err = readStyles(f); err != nil {
			return nil, fmt.Errorf("%w: styles: %v", ErrInvalidDocument, err)
		}
	}
	if f, ok := parts[numberingPart]; ok {
		if pkg.numbering, err = readNumbering(f); err != nil {
			return nil, fmt.Errorf("%w: numbering: %v", ErrInvalidDocument, err)
		}
	}
	if f, ok := parts[relsPart]; ok {
		if pkg.rels, err = readRelationships(f); err != nil {
			return nil, fmt.Errorf("%w: relationships: %v", ErrInvalidDocument, err)
		}
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer rc.Close()

	blocks, err := parseDocument(rc, pkg.rels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &renderer{converter: c, pkg: pkg, warned: map[string]struct{}{}}
	html, err := r.render(blocks)
	if err != nil {
		return nil, err
	}
	if c.policy != nil {
		html = c.policy.Sanitize(html)
	}
	return &Result{HTML: html, Messages: r.messages}, nil
}

type packageParts struct {
	styles    styleSheet
	numbering numbering
	rels      relationships
}

func indexParts(archive *zip.Reader) map[string]*zip.File {
	parts := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		parts[strings.TrimPrefix(f.Name, "/")] = f
	}
	return parts
}

func openPart(f *zip.File) (io.ReadCloser, error) {
	return f.Open()
}
