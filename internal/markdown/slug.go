package markdown

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/goliatone/go-slug"
)

var (
	datePrefix  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)
	nonSlugRuns = regexp.MustCompile(`[^a-z0-9]+`)
)

// SlugFromFilename derives a post slug from a Markdown file name:
// "2024-01-15-Hello World!.md" becomes "hello-world".
func SlugFromFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if ext := path.Ext(name); slices.Contains(DefaultExtensions, strings.ToLower(ext)) {
		name = strings.TrimSuffix(name, ext)
	}
	name = datePrefix.ReplaceAllString(name, "")
	name = strings.ToLower(name)
	name = nonSlugRuns.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

// ResolveSlug picks the slug for a post. An explicit frontmatter slug is
// normalised with go-slug; when it is empty or cannot be normalised the slug
// is derived from the file name.
func ResolveSlug(explicit, filename string) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		if normalized, err := slug.Normalize(trimmed); err == nil && normalized != "" {
			return normalized
		}
	}
	return SlugFromFilename(filename)
}
