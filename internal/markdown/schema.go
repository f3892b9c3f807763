package markdown

import (
	"fmt"
	"sync"

	"github.com/newtuple/dialogtuple/internal/validation"
)

var frontMatterSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":          map[string]any{"type": "string"},
		"slug":           map[string]any{"type": "string"},
		"date":           map[string]any{"type": "string"},
		"author":         map[string]any{"type": "string"},
		"authorPicture":  map[string]any{"type": "string"},
		"author_picture": map[string]any{"type": "string"},
		"description":    map[string]any{"type": "string"},
		"summary":        map[string]any{"type": "string"},
		"image":          map[string]any{"type": "string"},
		"tags": map[string]any{
			"type":  []any{"array", "string"},
			"items": map[string]any{"type": "string"},
		},
	},
}

var compileFrontMatterSchema = sync.OnceValues(func() (*validation.Schema, error) {
	return validation.Compile("frontmatter", frontMatterSchema)
})

// CheckFrontMatter validates raw frontmatter values against the post
// metadata schema. Problems are reported as warnings; a post is never
// rejected because of its metadata shape.
func CheckFrontMatter(raw map[string]any) []string {
	if len(raw) == 0 {
		return nil
	}
	schema, err := compileFrontMatterSchema()
	if err != nil {
		return []string{fmt.Sprintf("frontmatter schema unavailable: %v", err)}
	}

	violations := validation.Violations(schema.Validate(raw))
	if len(violations) == 0 {
		return nil
	}
	warnings := make([]string, 0, len(violations))
	for _, v := range violations {
		warnings = append(warnings, v.String())
	}
	return warnings
}
