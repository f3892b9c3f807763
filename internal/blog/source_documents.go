package blog

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/newtuple/dialogtuple/internal/docx"
	"github.com/newtuple/dialogtuple/internal/documents"
	"github.com/newtuple/dialogtuple/internal/markdown"
)

// DocumentTag marks posts that came from uploaded Word documents.
const DocumentTag = "document"

// DocumentLister returns the converted documents in the object store.
type DocumentLister interface {
	Contents(ctx context.Context) (*documents.ContentsResult, error)
}

// DocumentSource publishes converted DOCX uploads as posts.
type DocumentSource struct {
	docs   DocumentLister
	author string
	now    func() time.Time
}

var _ Source = (*DocumentSource)(nil)

// NewDocumentSource builds posts from docs. An empty author uses
// DefaultAuthor.
func NewDocumentSource(docs DocumentLister, author string) *DocumentSource {
	return &DocumentSource{
		docs:   docs,
		author: orDefault(strings.TrimSpace(author), DefaultAuthor),
		now:    time.Now,
	}
}

func (s *DocumentSource) Name() string {
	return SourceDocument
}

func (s *DocumentSource) Posts(ctx context.Context) ([]*Post, error) {
	result, err := s.docs.Contents(ctx)
	if err != nil {
		return nil, err
	}

	posts := make([]*Post, 0, len(result.Files))
	for _, file := range result.Files {
		stem := trimDocxExt(file.Name)
		modified := file.LastModified
		if modified.IsZero() {
			modified = s.now()
		}
		warnings := make([]string, 0, len(file.Warnings))
		for _, msg := range file.Warnings {
			warnings = append(warnings, msg.Message)
		}
		posts = append(posts, &Post{
			Slug:        markdown.ResolveSlug(stem, stem),
			Title:       FormatDocumentTitle(file.Name),
			Date:        modified.UTC().Format(markdown.DateLayout),
			Author:      s.author,
			Description: ExtractDescription(file.Content),
			Tags:        []string{DocumentTag},
			Content:     file.Content,
			Excerpt:     markdown.Excerpt(docx.TextContent(file.Content), markdown.DefaultExcerptLength),
			Source:      SourceDocument,
			Warnings:    warnings,
		})
	}
	return posts, nil
}

// FormatDocumentTitle turns "grant_proposal-v2.docx" into "Grant Proposal V2".
func FormatDocumentTitle(name string) string {
	stem := trimDocxExt(name)
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)

	var b strings.Builder
	prevWord := false
	for _, r := range stem {
		word := isWordRune(r)
		if word && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = word
	}
	return b.String()
}

// ExtractDescription returns the first two "."-separated sentences of the
// document text, terminated with a period.
func ExtractDescription(content string) string {
	text := docx.TextContent(content)
	if text == "" {
		return ""
	}
	parts := strings.Split(text, ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.TrimSpace(strings.Join(parts, ".")) + "."
}

func trimDocxExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".docx") {
		return name[:len(name)-len(".docx")]
	}
	return name
}

func isWordRune(r rune) bool {
	return r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
