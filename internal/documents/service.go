package documents

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/newtuple/dialogtuple/internal/docx"
	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

const (
	defaultListLimit   = 100
	defaultConcurrency = 4
)

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithConverter overrides the DOCX converter.
func WithConverter(converter Converter) ServiceOption {
	return func(s *service) {
		if converter != nil {
			s.converter = converter
		}
	}
}

// WithLogger sets the logger used for per-file failures.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.Ensure(logger)
	}
}

// WithMetrics records uploads and conversions.
func WithMetrics(metrics *Metrics) ServiceOption {
	return func(s *service) {
		s.metrics = metrics
	}
}

// WithListLimit bounds how many objects Contents inspects.
func WithListLimit(limit int) ServiceOption {
	return func(s *service) {
		if limit > 0 {
			s.listLimit = limit
		}
	}
}

// WithConcurrency bounds how many documents convert at once.
func WithConcurrency(n int) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

type service struct {
	store       interfaces.ObjectStore
	converter   Converter
	logger      interfaces.Logger
	metrics     *Metrics
	listLimit   int
	concurrency int
	now         func() time.Time
}

// NewService constructs a document service over store.
func NewService(store interfaces.ObjectStore, opts ...ServiceOption) Service {
	s := &service{
		store:       store,
		converter:   docx.NewConverter(),
		logger:      logging.NoOp(),
		listLimit:   defaultListLimit,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	name := baseName(req.FileName)
	if name == "" || strings.TrimSpace(req.FileBase64) == "" {
		s.metrics.upload("invalid")
		return nil, ErrMissingFields
	}
	if !IsDocx(name) {
		s.metrics.upload("invalid")
		return nil, ErrInvalidFileType
	}

	data, err := DecodeBase64(req.FileBase64)
	if err != nil {
		s.metrics.upload("invalid")
		return nil, err
	}

	logger := logging.WithDocument(s.logger.WithContext(ctx), name)
	obj, err := s.store.Put(ctx, name, data, interfaces.PutOptions{
		ContentType: DocxContentType,
		Upsert:      true,
	})
	if err != nil {
		s.metrics.upload("error")
		logger.Error("document upload failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	s.metrics.upload("ok")
	logger.Info("document uploaded", "size", obj.Size)
	return &UploadResult{Path: obj.Name, Message: UploadedMessage}, nil
}

func (s *service) Contents(ctx context.Context) (*ContentsResult, error) {
	logger := s.logger.WithContext(ctx)

	objects, err := s.store.List(ctx, interfaces.ListOptions{Limit: s.listLimit})
	if err != nil {
		logger.Error("document listing failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrListFailed, err)
	}

	var docs []interfaces.Object
	for _, obj := range objects {
		if IsDocx(obj.Name) {
			docs = append(docs, obj)
		}
	}

	converted := make([]*ConvertedFile, len(docs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, obj := range docs {
		group.Go(func() error {
			file, err := s.convert(groupCtx, obj)
			if err != nil {
				s.metrics.failed()
				logging.WithDocument(logger, obj.Name).Warn("document skipped", "error", err)
				return nil
			}
			converted[i] = file
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := make([]ConvertedFile, 0, len(docs))
	for _, file := range converted {
		if file != nil {
			files = append(files, *file)
		}
	}
	return &ContentsResult{
		Files:          files,
		TotalProcessed: len(files),
		TotalFound:     len(docs),
	}, nil
}

func (s *service) Download(ctx context.Context, name string) ([]byte, *interfaces.Object, error) {
	clean := baseName(name)
	if clean == "" {
		return nil, nil, ErrMissingFields
	}
	return s.store.Get(ctx, clean)
}

func (s *service) convert(ctx context.Context, obj interfaces.Object) (*ConvertedFile, error) {
	data, stored, err := s.store.Get(ctx, obj.Name)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	started := s.now()
	result, err := s.converter.Convert(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	s.metrics.converted(s.now().Sub(started).Seconds())

	warnings := result.Messages
	if warnings == nil {
		warnings = []docx.Message{}
	}
	modified := obj.LastModified
	if stored != nil && !stored.LastModified.IsZero() {
		modified = stored.LastModified
	}
	return &ConvertedFile{
		Name:         obj.Name,
		Content:      result.HTML,
		Warnings:     warnings,
		LastModified: modified,
	}, nil
}

// IsDocx reports whether name carries a .docx extension, ignoring case.
func IsDocx(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".docx")
}

// DecodeBase64 decodes standard or URL-safe base64, with or without padding.
// A data URL prefix ("data:...;base64,") and embedded whitespace are ignored.
func DecodeBase64(value string) ([]byte, error) {
	payload := strings.TrimSpace(value)
	if strings.HasPrefix(payload, "data:") {
		if _, rest, ok := strings.Cut(payload, ","); ok {
			payload = rest
		}
	}
	payload = strings.Join(strings.Fields(payload), "")

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if data, err := enc.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, ErrInvalidEncoding
}

func baseName(name string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if trimmed == "" {
		return ""
	}
	base := path.Base(trimmed)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
