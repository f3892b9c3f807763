package blog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

const buildKey = "posts"

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithRepository persists each assembled snapshot to repo.
func WithRepository(repo Repository) ServiceOption {
	return func(s *service) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.Ensure(logger)
	}
}

type service struct {
	sources []Source
	repo    Repository
	logger  interfaces.Logger

	mu         sync.RWMutex
	cache      []*Post
	loaded     bool
	generation uint64
	group      singleflight.Group
}

// NewService merges sources in the given order; on duplicate slugs the
// earlier source wins.
func NewService(sources []Source, opts ...ServiceOption) (Service, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	s := &service{
		sources: append([]Source(nil), sources...),
		repo:    NewMemoryRepository(),
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Posts returns every post, newest first. The first call assembles the
// list; later calls are served from the cache.
func (s *service) Posts(ctx context.Context) ([]*Post, error) {
	if posts, ok := s.cached(); ok {
		return posts, nil
	}

	value, err, _ := s.group.Do(buildKey, func() (any, error) {
		if posts, ok := s.cached(); ok {
			return posts, nil
		}
		return s.build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]*Post(nil), value.([]*Post)...), nil
}

func (s *service) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		if post, repoErr := s.repo.GetBySlug(ctx, slug); repoErr == nil {
			return post, nil
		}
		return nil, err
	}
	for _, post := range posts {
		if post.Slug == slug {
			return post, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
}

func (s *service) Paginated(ctx context.Context, page, pageSize int) (*Page, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	return Paginate(posts, page, pageSize), nil
}

func (s *service) Recent(ctx context.Context, count int) ([]*Post, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = DefaultRecent
	}
	return posts[:min(count, len(posts))], nil
}

func (s *service) ByTag(ctx context.Context, tag string) ([]*Post, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByTag(posts, tag), nil
}

func (s *service) Search(ctx context.Context, term string) ([]*Post, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	return SearchPosts(posts, term), nil
}

func (s *service) Tags(ctx context.Context) ([]string, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	return AllTags(posts), nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	return CollectStats(posts), nil
}

// Reload drops the cache and assembles the posts again.
func (s *service) Reload(ctx context.Context) ([]*Post, error) {
	s.ClearCache()
	return s.Posts(ctx)
}

func (s *service) ClearCache() {
	s.mu.Lock()
	s.cache = nil
	s.loaded = false
	s.generation++
	s.mu.Unlock()
	s.group.Forget(buildKey)
}

func (s *service) cached() ([]*Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, false
	}
	return append([]*Post(nil), s.cache...), true
}

func (s *service) build(ctx context.Context) ([]*Post, error) {
	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	logger := s.logger.WithContext(ctx)
	var (
		merged    []*Post
		failures  []error
		succeeded int
	)
	seen := map[string]struct{}{}

	for _, src := range s.sources {
		posts, err := src.Posts(ctx)
		if err != nil {
			logging.WithPost(logger, "", src.Name()).Warn("blog source failed", "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		succeeded++
		for _, post := range posts {
			if _, dup := seen[post.Slug]; dup {
				logging.WithPost(logger, post.Slug, src.Name()).Warn("duplicate slug skipped")
				continue
			}
			seen[post.Slug] = struct{}{}
			merged = append(merged, post)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if succeeded == 0 {
		snapshot, err := s.repo.List(ctx)
		if err == nil && len(snapshot) > 0 {
			logger.Warn("blog sources failed, serving stored snapshot", "posts", len(snapshot))
			return snapshot, nil
		}
		return nil, errors.Join(append([]error{ErrSourcesFailed}, failures...)...)
	}

	if merged == nil {
		merged = []*Post{}
	}
	SortByDate(merged)

	if err := s.repo.ReplaceAll(ctx, merged); err != nil {
		logger.Warn("blog snapshot not persisted", "error", err)
	}

	s.mu.Lock()
	if s.generation == generation {
		s.cache = merged
		s.loaded = true
	}
	s.mu.Unlock()

	logger.Info("blog posts assembled", "posts", len(merged), "sources", succeeded)
	return merged, nil
}
