package markdown

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v2"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// DateLayout is the canonical date format used for post dates.
const DateLayout = "2006-01-02"

var (
	// Only "---" delimited YAML counts as front matter; TOML and JSON
	// blocks are left in the body.
	yamlFrontMatter = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

	frontMatterBlock = regexp.MustCompile(`^---\s*\n([\s\S]*?)\n---\s*\n([\s\S]*)$`)

	dateLayouts = []string{
		DateLayout,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006/01/02",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
	}
)

// ParseFrontMatter extracts metadata and the Markdown body from source. YAML
// is tried first; a block that is not valid YAML is read with the lenient
// key/value parser so a single stray colon never drops a post. Input without
// a leading "---" block is returned whole as body with empty metadata.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	raw := map[string]any{}

	body, err := frontmatter.Parse(bytes.NewReader(source), &raw, yamlFrontMatter)
	if err != nil {
		lenient, rest, ok := parseLenient(source)
		if !ok {
			return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		raw, body = lenient, rest
	}

	return frontMatterFromRaw(raw), body, nil
}

// BuildDocument assembles a Document from the supplied path, raw content and
// modification time. BodyHTML is left empty so callers can render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	return &interfaces.Document{
		FilePath:     path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
		Warnings:     CheckFrontMatter(fm.Raw),
	}, nil
}

// NormalizeDate converts a date value into YYYY-MM-DD when it matches one of
// the supported layouts. Unparseable strings are returned trimmed, unchanged.
func NormalizeDate(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if parsed, ok := ParseDate(trimmed); ok {
		return parsed.Format(DateLayout)
	}
	return trimmed
}

// ParseDate parses value against the supported date layouts.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func parseLenient(source []byte) (map[string]any, []byte, bool) {
	normalized := strings.ReplaceAll(string(source), "\r\n", "\n")
	match := frontMatterBlock.FindStringSubmatch(normalized)
	if match == nil {
		return nil, nil, false
	}

	data := map[string]any{}
	for _, line := range strings.Split(match[1], "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
			data[key] = parseInlineList(value)
			continue
		}
		data[key] = value
	}
	return data, []byte(match[2]), true
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

// parseInlineList reads "[a, b]" style lists, JSON first.
func parseInlineList(value string) []any {
	var decoded []any
	if err := json.Unmarshal([]byte(value), &decoded); err == nil {
		return decoded
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
	if strings.TrimSpace(inner) == "" {
		return []any{}
	}
	parts := strings.Split(inner, ",")
	out := make([]any, 0, len(parts))
	for _, part := range parts {
		item := strings.Trim(strings.TrimSpace(part), `"'`)
		out = append(out, item)
	}
	return out
}

func frontMatterFromRaw(raw map[string]any) interfaces.FrontMatter {
	raw = normalizeRaw(raw)
	return interfaces.FrontMatter{
		Title:         stringField(raw, "title"),
		Slug:          stringField(raw, "slug"),
		Date:          NormalizeDate(stringField(raw, "date")),
		Author:        stringField(raw, "author"),
		AuthorPicture: firstNonEmpty(stringField(raw, "authorPicture"), stringField(raw, "author_picture")),
		Description:   firstNonEmpty(stringField(raw, "description"), stringField(raw, "summary")),
		Image:         stringField(raw, "image"),
		Tags:          tagsField(raw["tags"]),
		Raw:           raw,
	}
}

func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []any, map[string]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func tagsField(value any) []string {
	switch v := value.(type) {
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if tag := strings.TrimSpace(fmt.Sprint(item)); tag != "" {
				tags = append(tags, tag)
			}
		}
		return tags
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			return tagsField(parseInlineList(trimmed))
		}
		if trimmed == "" {
			return []string{}
		}
		parts := strings.Split(trimmed, ",")
		tags := make([]string, 0, len(parts))
		for _, part := range parts {
			if tag := strings.Trim(strings.TrimSpace(part), `"'`); tag != "" {
				tags = append(tags, tag)
			}
		}
		return tags
	default:
		return []string{}
	}
}

// normalizeRaw converts YAML decoder output into JSON compatible values:
// string keyed maps, []any slices, RFC3339 timestamps and float64 numbers.
func normalizeRaw(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return normalizeRaw(v)
	case map[any]any:
		converted := make(map[string]any, len(v))
		for key, item := range v {
			converted[fmt.Sprint(key)] = normalizeValue(item)
		}
		return converted
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(DateLayout)
		}
		return v.Format(time.RFC3339)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
