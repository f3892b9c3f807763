package docx

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockBoundaries = map[atom.Atom]struct{}{
	atom.P: {}, atom.Br: {}, atom.Li: {}, atom.Td: {}, atom.Tr: {},
	atom.H1: {}, atom.H2: {}, atom.H3: {}, atom.H4: {}, atom.H5: {}, atom.H6: {},
	atom.Ul: {}, atom.Ol: {}, atom.Table: {}, atom.Blockquote: {}, atom.Div: {},
}

// TextContent returns the visible text of an HTML fragment. Block boundaries
// become spaces and whitespace runs collapse to one space.
func TextContent(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if _, ok := blockBoundaries[atom.Lookup(name)]; ok {
				b.WriteByte(' ')
			}
		}
	}
}
