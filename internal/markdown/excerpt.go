package markdown

import (
	"regexp"
	"strings"
)

// DefaultExcerptLength is the rune budget used when none is supplied.
const DefaultExcerptLength = 200

var excerptRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile("```[\\s\\S]*?```"), ""},
	{regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`), ""},
	{regexp.MustCompile(`#{1,6}\s+`), ""},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile("`(.*?)`"), "$1"},
	{regexp.MustCompile(`\[(.*?)\]\(.*?\)`), "$1"},
	{regexp.MustCompile(`\n+`), " "},
}

// PlainText strips the common Markdown markers from source, leaving prose.
func PlainText(source string) string {
	text := strings.ReplaceAll(source, "\r\n", "\n")
	for _, rule := range excerptRules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	return strings.TrimSpace(text)
}

// Excerpt builds a plain text teaser of at most maxLength runes (plus an
// ellipsis). It prefers ending on a sentence boundary found in the last 30%
// of the budget, then on a word boundary.
func Excerpt(source string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	plain := PlainText(source)
	runes := []rune(plain)
	if len(runes) <= maxLength {
		return plain
	}

	truncated := string(runes[:maxLength])
	if end := lastSentenceEnd(truncated); end >= 0 && float64(runeCount(truncated[:end])) > float64(maxLength)*0.7 {
		return truncated[:end+1]
	}

	if space := strings.LastIndex(truncated, " "); space >= 0 {
		return truncated[:space] + "..."
	}
	return truncated + "..."
}

func lastSentenceEnd(text string) int {
	return max(strings.LastIndex(text, "."), strings.LastIndex(text, "!"), strings.LastIndex(text, "?"))
}

func runeCount(text string) int {
	return len([]rune(text))
}
