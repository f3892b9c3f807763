package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// MinioConfig describes an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// MinioStore stores objects in an S3-compatible bucket.
type MinioStore struct {
	cfg    MinioConfig
	client *minio.Client
}

var _ interfaces.ObjectStore = (*MinioStore)(nil)

// NewMinioStore builds a client for cfg. A scheme on the endpoint decides TLS
// when present.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrBucketRequired
	}
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: minio client: %w", err)
	}
	return &MinioStore{cfg: cfg, client: client}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("objectstore: bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("objectstore: make bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, name string, data []byte, opts interfaces.PutOptions) (*interfaces.Object, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if !opts.Upsert {
		_, err := s.client.StatObject(ctx, s.cfg.Bucket, name, minio.StatObjectOptions{})
		if err == nil {
			return nil, fmt.Errorf("%w: %s", ErrObjectExists, name)
		}
		if !isNotFound(err) {
			return nil, fmt.Errorf("objectstore: stat %s: %w", name, err)
		}
	}

	info, err := s.client.PutObject(ctx, s.cfg.Bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: put %s: %w", name, err)
	}

	modified := info.LastModified
	if modified.IsZero() {
		modified = time.Now().UTC()
	}
	return &interfaces.Object{
		Name:         name,
		Size:         info.Size,
		ContentType:  opts.ContentType,
		LastModified: modified,
	}, nil
}

// List reads the top level of the bucket under opts.Prefix. Keys arrive in
// lexical order, so the listing stops once the requested window is filled.
func (s *MinioStore) List(ctx context.Context, opts interfaces.ListOptions) ([]interfaces.Object, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects, err := collectListing(s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    opts.Prefix,
		Recursive: false,
	}), listWindow(opts))
	if err != nil {
		return nil, fmt.Errorf("objectstore: list %s: %w", s.cfg.Bucket, err)
	}
	return page(objects, opts), nil
}

// listWindow is the number of objects needed to serve opts.
func listWindow(opts interfaces.ListOptions) int {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return max(opts.Offset, 0) + limit
}

// collectListing drains entries until want objects are read. Common
// prefixes of a non-recursive listing are skipped.
func collectListing(entries <-chan minio.ObjectInfo, want int) ([]interfaces.Object, error) {
	objects := make([]interfaces.Object, 0, min(want, DefaultListLimit))
	for info := range entries {
		if info.Err != nil {
			return nil, info.Err
		}
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		objects = append(objects, interfaces.Object{
			Name:         info.Key,
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
		})
		if len(objects) >= want {
			break
		}
	}
	return objects, nil
}

func (s *MinioStore) Get(ctx context.Context, name string) ([]byte, *interfaces.Object, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, s.wrapGetError(name, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, nil, s.wrapGetError(name, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, s.wrapGetError(name, err)
	}
	return data, &interfaces.Object{
		Name:         name,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (s *MinioStore) Remove(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("objectstore: remove %s: %w", name, err)
	}
	return nil
}

func (s *MinioStore) wrapGetError(name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	return fmt.Errorf("objectstore: get %s: %w", name, err)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == 404 && resp.Code != "NoSuchBucket")
}

func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	trimmed := strings.TrimSpace(endpoint)
	switch {
	case strings.HasPrefix(trimmed, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(trimmed, "https://"), "/"), true
	case strings.HasPrefix(trimmed, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(trimmed, "http://"), "/"), false
	default:
		return strings.TrimSuffix(trimmed, "/"), useSSL
	}
}

// page sorts objects by name and applies offset and limit.
func page(objects []interfaces.Object, opts interfaces.ListOptions) []interfaces.Object {
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })

	offset := max(opts.Offset, 0)
	limit := listWindow(opts) - offset
	if offset >= len(objects) {
		return []interfaces.Object{}
	}
	end := min(offset+limit, len(objects))
	out := make([]interfaces.Object, end-offset)
	copy(out, objects[offset:end])
	return out
}

