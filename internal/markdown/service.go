package markdown

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// Config controls discovery and rendering for a content root.
type Config struct {
	Recursive  bool
	Extensions []string
	Parser     interfaces.ParseOptions
}

// Service loads posts from a filesystem and renders their bodies.
type Service struct {
	defaults interfaces.ParseOptions
	parser   interfaces.MarkdownParser
	loader   *Loader
}

var _ interfaces.MarkdownService = (*Service)(nil)

// NewServiceFS returns a Service reading from root, which may be an
// os.DirFS, an embed.FS or an fstest.MapFS. A nil parser means goldmark
// configured with cfg.Parser.
func NewServiceFS(root fs.FS, cfg Config, parser interfaces.MarkdownParser) *Service {
	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}
	return &Service{
		defaults: cfg.Parser,
		parser:   parser,
		loader:   NewLoader(root, cfg.Recursive, cfg.Extensions...),
	}
}

// Load reads and renders the post at name.
func (s *Service) Load(ctx context.Context, name string) (*interfaces.Document, error) {
	doc, err := s.loader.LoadFile(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.render(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadDirectory reads and renders every post under dir.
func (s *Service) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	docs, err := s.loader.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := s.render(ctx, doc); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// Discover lists post paths under dir without reading them.
func (s *Service) Discover(ctx context.Context, dir string) ([]string, error) {
	return s.loader.Discover(ctx, dir)
}

// Render converts source to HTML. Non-zero fields in opts switch on
// behaviour on top of the service defaults; they never switch it off.
func (s *Service) Render(ctx context.Context, source []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged := s.defaults
	if len(opts.Extensions) > 0 {
		merged.Extensions = append([]string(nil), opts.Extensions...)
	}
	merged.Sanitize = merged.Sanitize || opts.Sanitize
	merged.HardWraps = merged.HardWraps || opts.HardWraps
	merged.SafeMode = merged.SafeMode || opts.SafeMode
	return s.parser.ParseWithOptions(source, merged)
}

func (s *Service) render(ctx context.Context, doc *interfaces.Document) error {
	html, err := s.Render(ctx, doc.Body, interfaces.ParseOptions{})
	if err != nil {
		return fmt.Errorf("markdown: render %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	return nil
}
