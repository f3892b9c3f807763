package objectstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

type memoryEntry struct {
	data   []byte
	object interfaces.Object
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryEntry
	now     func() time.Time
}

var _ interfaces.ObjectStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: map[string]memoryEntry{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source used for LastModified.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *MemoryStore) Put(ctx context.Context, name string, data []byte, opts interfaces.PutOptions) (*interfaces.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[name]; exists && !opts.Upsert {
		return nil, fmt.Errorf("%w: %s", ErrObjectExists, name)
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	obj := interfaces.Object{
		Name:         name,
		Size:         int64(len(stored)),
		ContentType:  opts.ContentType,
		LastModified: s.now(),
	}
	s.objects[name] = memoryEntry{data: stored, object: obj}
	return &obj, nil
}

func (s *MemoryStore) List(ctx context.Context, opts interfaces.ListOptions) ([]interfaces.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	objects := make([]interfaces.Object, 0, len(s.objects))
	for name, entry := range s.objects {
		rest, ok := strings.CutPrefix(name, opts.Prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		objects = append(objects, entry.object)
	}
	s.mu.RUnlock()

	return page(objects, opts), nil
}

func (s *MemoryStore) Get(ctx context.Context, name string) ([]byte, *interfaces.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.objects[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	obj := entry.object
	return data, &obj, nil
}

func (s *MemoryStore) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	delete(s.objects, name)
	return nil
}
