package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// DefaultExtensions are the file suffixes treated as posts.
var DefaultExtensions = []string{".md", ".markdown"}

// Loader reads post files from a content root.
type Loader struct {
	root       fs.FS
	extensions []string
	recursive  bool
}

// NewLoader returns a Loader over root. Suffixes are matched case
// insensitively; an empty list falls back to DefaultExtensions.
func NewLoader(root fs.FS, recursive bool, extensions ...string) *Loader {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return &Loader{root: root, extensions: exts, recursive: recursive}
}

// LoadFile reads one post and splits its frontmatter from the body.
func (l *Loader) LoadFile(ctx context.Context, name string) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := contentPath(name)

	info, err := fs.Stat(l.root, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown: stat %s: %w", rel, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("markdown: %s is a directory", rel)
	}
	data, err := fs.ReadFile(l.root, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown: read %s: %w", rel, err)
	}

	doc, err := BuildDocument(rel, data, info.ModTime())
	if err != nil {
		return nil, fmt.Errorf("markdown: parse %s: %w", rel, err)
	}
	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]
	return doc, nil
}

// Discover returns the post paths under dir in lexical order. Hidden files
// and directories are skipped.
func (l *Loader) Discover(ctx context.Context, dir string) ([]string, error) {
	start := contentPath(dir)
	var found []string

	walk := func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p != start && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		switch {
		case entry.IsDir() && p != start && !l.recursive:
			return fs.SkipDir
		case entry.IsDir():
			return nil
		case l.isPost(p):
			found = append(found, p)
		}
		return nil
	}
	if err := fs.WalkDir(l.root, start, walk); err != nil {
		return nil, fmt.Errorf("markdown: walk %s: %w", start, err)
	}

	slices.Sort(found)
	return found, nil
}

// LoadDirectory loads every post Discover finds under dir. The first
// unreadable file aborts the load.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	paths, err := l.Discover(ctx, dir)
	if err != nil {
		return nil, err
	}
	docs := make([]*interfaces.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := l.LoadFile(ctx, p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) isPost(p string) bool {
	return slices.Contains(l.extensions, strings.ToLower(path.Ext(p)))
}

// contentPath turns a user supplied path into an fs.FS name.
func contentPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "."
	}
	cleaned := strings.TrimLeft(path.Clean(p), "/")
	if cleaned == "" {
		return "."
	}
	return cleaned
}
