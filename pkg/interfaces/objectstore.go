package interfaces

import (
	"context"
	"time"
)

// Object describes a stored file in the managed object store.
type Object struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// ListOptions bounds an object listing. A zero Limit means the store default.
type ListOptions struct {
	Prefix string
	Limit  int
	Offset int
}

// PutOptions controls how an object is written.
type PutOptions struct {
	ContentType string
	// Upsert overwrites an existing object with the same name when true.
	Upsert bool
}

// ObjectStore is the subset of a bucket API the backend relies on.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, opts PutOptions) (*Object, error)
	List(ctx context.Context, opts ListOptions) ([]Object, error)
	Get(ctx context.Context, name string) ([]byte, *Object, error)
	Remove(ctx context.Context, name string) error
}
