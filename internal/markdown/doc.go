// Package markdown turns blog post files into documents: frontmatter
// metadata, slugs, excerpts and goldmark-rendered HTML.
package markdown
