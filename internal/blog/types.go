package blog

import (
	"context"
	"errors"
)

const (
	SourceMarkdown = "markdown"
	SourceDocument = "document"

	DefaultTitle    = "Untitled"
	DefaultAuthor   = "Unknown Author"
	DefaultPage     = 1
	DefaultPageSize = 10
	DefaultRecent   = 5
)

var (
	ErrPostNotFound  = errors.New("blog: post not found")
	ErrNoSources     = errors.New("blog: at least one source is required")
	ErrSourcesFailed = errors.New("blog: every content source failed")
)

// Post is a published blog entry. Content holds rendered HTML.
type Post struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Date          string   `json:"date"`
	Author        string   `json:"author"`
	AuthorPicture string   `json:"authorPicture,omitempty"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Image         string   `json:"image,omitempty"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt,omitempty"`
	Source        string   `json:"source"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Page is one window of the date-sorted post list.
type Page struct {
	Posts       []*Post `json:"blogs"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
	TotalPosts  int     `json:"totalBlogs"`
}

// DateRange spans the oldest and newest post dates.
type DateRange struct {
	Oldest string `json:"oldest"`
	Newest string `json:"newest"`
}

// Stats summarises the post collection.
type Stats struct {
	TotalPosts int        `json:"totalBlogs"`
	TotalTags  int        `json:"totalTags"`
	Authors    []string   `json:"authors"`
	DateRange  *DateRange `json:"dateRange"`
}

// Source produces posts from one origin.
type Source interface {
	Name() string
	Posts(ctx context.Context) ([]*Post, error)
}

// Repository keeps the last assembled post snapshot.
type Repository interface {
	ReplaceAll(ctx context.Context, posts []*Post) error
	List(ctx context.Context) ([]*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
}

// Service answers blog queries from a cached, date-sorted post list.
type Service interface {
	Posts(ctx context.Context) ([]*Post, error)
	PostBySlug(ctx context.Context, slug string) (*Post, error)
	Paginated(ctx context.Context, page, pageSize int) (*Page, error)
	Recent(ctx context.Context, count int) ([]*Post, error)
	ByTag(ctx context.Context, tag string) ([]*Post, error)
	Search(ctx context.Context, term string) ([]*Post, error)
	Tags(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*Stats, error)
	Reload(ctx context.Context) ([]*Post, error)
	ClearCache()
}

func clonePost(p *Post) *Post {
	if p == nil {
		return nil
	}
	cloned := *p
	cloned.Tags = append([]string{}, p.Tags...)
	if p.Warnings != nil {
		cloned.Warnings = append([]string{}, p.Warnings...)
	}
	return &cloned
}
