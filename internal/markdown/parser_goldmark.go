package markdown

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// defaultExtensions apply when ParseOptions names none.
var defaultExtensions = []string{"gfm", "linkify", "tasklist"}

var extensionsByName = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// GoldmarkParser renders post bodies with goldmark. Engines are built once
// per distinct option set and shared, so a blog load rendering many posts
// concurrently does not rebuild them.
type GoldmarkParser struct {
	defaults interfaces.ParseOptions
	policy   *bluemonday.Policy
	engines  sync.Map // engineKey -> goldmark.Markdown
}

var _ interfaces.MarkdownParser = (*GoldmarkParser)(nil)

// NewGoldmarkParser returns a parser applying defaults on Parse.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{defaults: defaults, policy: SanitizePolicy()}
}

// SanitizePolicy is the UGC policy used for posts and converted documents.
// Heading ids survive so in-page anchors keep working.
func SanitizePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return policy
}

func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return p.ParseWithOptions(markdown, p.defaults)
}

// ParseWithOptions renders markdown with opts. Raw HTML passes through
// unless SafeMode or Sanitize is set; Sanitize also scrubs the output.
func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.engine(opts).Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	if !opts.Sanitize {
		return buf.Bytes(), nil
	}
	return p.policy.SanitizeBytes(buf.Bytes()), nil
}

type engineKey struct {
	extensions string
	hardWraps  bool
	rawHTML    bool
}

func (p *GoldmarkParser) engine(opts interfaces.ParseOptions) goldmark.Markdown {
	names := extensionNames(opts.Extensions)
	key := engineKey{
		extensions: strings.Join(names, ","),
		hardWraps:  opts.HardWraps,
		rawHTML:    !opts.SafeMode && !opts.Sanitize,
	}
	if cached, ok := p.engines.Load(key); ok {
		return cached.(goldmark.Markdown)
	}

	var rendererOpts []renderer.Option
	if key.hardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if key.rawHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	extenders := make([]goldmark.Extender, 0, len(names))
	for _, name := range names {
		extenders = append(extenders, extensionsByName[name])
	}

	md := goldmark.New(
		goldmark.WithExtensions(extenders...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	actual, _ := p.engines.LoadOrStore(key, md)
	return actual.(goldmark.Markdown)
}

// extensionNames normalises requested names, dropping unknown ones and
// duplicates.
func extensionNames(requested []string) []string {
	if len(requested) == 0 {
		return defaultExtensions
	}
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, known := extensionsByName[name]; !known || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}
