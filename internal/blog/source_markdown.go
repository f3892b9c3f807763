package blog

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/newtuple/dialogtuple/internal/markdown"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// MarkdownLoader discovers and renders Markdown documents.
type MarkdownLoader interface {
	Discover(ctx context.Context, dir string) ([]string, error)
	Load(ctx context.Context, path string) (*interfaces.Document, error)
}

// MarkdownSourceOption configures a MarkdownSource.
type MarkdownSourceOption func(*MarkdownSource)

// WithMarkdownClock sets the clock used for posts without a date.
func WithMarkdownClock(now func() time.Time) MarkdownSourceOption {
	return func(s *MarkdownSource) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMarkdownConcurrency bounds how many files load at once.
func WithMarkdownConcurrency(n int) MarkdownSourceOption {
	return func(s *MarkdownSource) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithExcerptLength overrides the excerpt rune budget.
func WithExcerptLength(n int) MarkdownSourceOption {
	return func(s *MarkdownSource) {
		if n > 0 {
			s.excerptLength = n
		}
	}
}

// MarkdownSource turns the Markdown files of a directory into posts.
type MarkdownSource struct {
	loader        MarkdownLoader
	dir           string
	now           func() time.Time
	concurrency   int
	excerptLength int
}

var _ Source = (*MarkdownSource)(nil)

// NewMarkdownSource reads posts from dir through loader.
func NewMarkdownSource(loader MarkdownLoader, dir string, opts ...MarkdownSourceOption) *MarkdownSource {
	s := &MarkdownSource{
		loader:        loader,
		dir:           dir,
		now:           time.Now,
		concurrency:   8,
		excerptLength: markdown.DefaultExcerptLength,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MarkdownSource) Name() string {
	return SourceMarkdown
}

// Posts loads every file concurrently. A single failing file fails the
// whole source.
func (s *MarkdownSource) Posts(ctx context.Context) ([]*Post, error) {
	paths, err := s.loader.Discover(ctx, s.dir)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Format(markdown.DateLayout)
	posts := make([]*Post, len(paths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, path := range paths {
		group.Go(func() error {
			doc, err := s.loader.Load(groupCtx, path)
			if err != nil {
				return fmt.Errorf("blog post %s: %w", path, err)
			}
			posts[i] = PostFromDocument(doc, today, s.excerptLength)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return posts, nil
}

// PostFromDocument maps a rendered Markdown document onto a post, filling
// defaults for missing metadata. today is used when no date is set.
func PostFromDocument(doc *interfaces.Document, today string, excerptLength int) *Post {
	fm := doc.FrontMatter
	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Post{
		Slug:          markdown.ResolveSlug(fm.Slug, doc.FilePath),
		Title:         orDefault(fm.Title, DefaultTitle),
		Date:          orDefault(fm.Date, today),
		Author:        orDefault(fm.Author, DefaultAuthor),
		AuthorPicture: fm.AuthorPicture,
		Description:   fm.Description,
		Tags:          tags,
		Image:         fm.Image,
		Content:       string(doc.BodyHTML),
		Excerpt:       markdown.Excerpt(string(doc.Body), excerptLength),
		Source:        SourceMarkdown,
		Warnings:      doc.Warnings,
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
