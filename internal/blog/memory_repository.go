package blog

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository keeps the post snapshot in memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	posts []*Post
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) ReplaceAll(_ context.Context, posts []*Post) error {
	cloned := make([]*Post, 0, len(posts))
	for _, post := range posts {
		cloned = append(cloned, clonePost(post))
	}
	r.mu.Lock()
	r.posts = cloned
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Post, 0, len(r.posts))
	for _, post := range r.posts {
		out = append(out, clonePost(post))
	}
	return out, nil
}

func (r *MemoryRepository) GetBySlug(_ context.Context, slug string) (*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, post := range r.posts {
		if post.Slug == slug {
			return clonePost(post), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
}
