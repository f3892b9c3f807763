package docx

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headingName = regexp.MustCompile(`^heading ?([1-6])$`)

type renderer struct {
	converter *Converter
	pkg       *packageParts
	warned    map[string]struct{}
	messages  []Message
}

type listFrame struct {
	level int
	list  *html.Node
	item  *html.Node
}

func (r *renderer) render(blocks []block) (string, error) {
	var buf bytes.Buffer
	for _, node := range r.blockNodes(blocks) {
		if err := html.Render(&buf, node); err != nil {
			return "", fmt.Errorf("docx render: %w", err)
		}
	}
	return buf.String(), nil
}

func (r *renderer) blockNodes(blocks []block) []*html.Node {
	var out []*html.Node
	var stack []listFrame

	for _, b := range blocks {
		switch v := b.(type) {
		case *paragraph:
			if v.listItem() {
				content := r.inline(v.runs)
				if content == nil {
					continue
				}
				for len(stack) > 0 && stack[len(stack)-1].level > v.level {
					stack = stack[:len(stack)-1]
				}
				if len(stack) == 0 || stack[len(stack)-1].level < v.level {
					list := newElement(listTag(r.pkg.numbering.ordered(v.numID, v.level)))
					if len(stack) == 0 {
						out = append(out, list)
					} else {
						parent := stack[len(stack)-1].item
						if parent == nil {
							parent = stack[len(stack)-1].list
						}
						parent.AppendChild(list)
					}
					stack = append(stack, listFrame{level: v.level, list: list})
				}
				item := newElement("li")
				appendAll(item, content)
				top := &stack[len(stack)-1]
				top.list.AppendChild(item)
				top.item = item
				continue
			}

			stack = nil
			tag := r.paragraphTag(v.styleID)
			content := r.inline(v.runs)
			if content == nil {
				continue
			}
			el := newElement(tag)
			appendAll(el, content)
			out = append(out, el)
		case *table:
			stack = nil
			out = append(out, r.tableNode(v))
		}
	}
	return out
}

func (r *renderer) tableNode(t *table) *html.Node {
	el := newElement("table")
	for _, row := range t.rows {
		tr := newElement("tr")
		for _, c := range row {
			td := newElement("td")
			appendAll(td, r.blockNodes(c.blocks))
			tr.AppendChild(td)
		}
		el.AppendChild(tr)
	}
	return el
}

// inline renders runs, returning nil when they hold no visible text.
func (r *renderer) inline(runs []run) []*html.Node {
	var nodes []*html.Node
	var link *html.Node
	hasText := false

	for _, rn := range mergeRuns(runs) {
		if strings.TrimSpace(rn.text) != "" {
			hasText = true
		}
		content := r.formatted(rn)
		if rn.format.href == "" {
			link = nil
			nodes = append(nodes, content...)
			continue
		}
		if link == nil || linkHref(link) != rn.format.href {
			link = newElement("a")
			link.Attr = []html.Attribute{{Key: "href", Val: rn.format.href}}
			nodes = append(nodes, link)
		}
		appendAll(link, content)
	}

	if !hasText {
		return nil
	}
	return nodes
}

func (r *renderer) formatted(rn run) []*html.Node {
	nodes := textNodes(rn.text)
	wrap := func(tag string) {
		el := newElement(tag)
		appendAll(el, nodes)
		nodes = []*html.Node{el}
	}

	if rn.format.strike {
		wrap("s")
	}
	if rn.format.vertAlign != "" {
		wrap(rn.format.vertAlign)
	}
	if rn.format.italic {
		wrap("em")
	}
	if rn.format.bold {
		wrap("strong")
	}
	if tag := r.runTag(rn.format.styleID); tag != "" {
		wrap(tag)
	}
	return nodes
}

func (r *renderer) paragraphTag(styleID string) string {
	if styleID == "" {
		return "p"
	}
	name := r.pkg.styles.name(styleID)
	normalized := normalizeStyleName(name)
	if tag, ok := r.converter.paragraphStyles[normalized]; ok {
		return tag
	}
	if match := headingName.FindStringSubmatch(normalized); match != nil {
		return "h" + match[1]
	}
	r.warn(fmt.Sprintf("Unrecognised paragraph style: '%s' (Style ID: %s)", name, styleID))
	return "p"
}

func (r *renderer) runTag(styleID string) string {
	if styleID == "" {
		return ""
	}
	name := r.pkg.styles.name(styleID)
	if tag, ok := r.converter.runStyles[normalizeStyleName(name)]; ok {
		return tag
	}
	r.warn(fmt.Sprintf("Unrecognised run style: '%s' (Style ID: %s)", name, styleID))
	return ""
}

func (r *renderer) warn(message string) {
	if _, ok := r.warned[message]; ok {
		return
	}
	r.warned[message] = struct{}{}
	r.messages = append(r.messages, Message{Type: "warning", Message: message})
}

func mergeRuns(runs []run) []run {
	merged := make([]run, 0, len(runs))
	for _, rn := range runs {
		if rn.text == "" {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].format == rn.format {
			merged[n-1].text += rn.text
			continue
		}
		merged = append(merged, rn)
	}
	return merged
}

func textNodes(text string) []*html.Node {
	var nodes []*html.Node
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			nodes = append(nodes, newElement("br"))
		}
		if line != "" {
			nodes = append(nodes, &html.Node{Type: html.TextNode, Data: line})
		}
	}
	return nodes
}

func listTag(ordered bool) string {
	if ordered {
		return "ol"
	}
	return "ul"
}

func linkHref(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "href" {
			return a.Val
		}
	}
	return ""
}

func newElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

func appendAll(parent *html.Node, children []*html.Node) {
	for _, child := range children {
		parent.AppendChild(child)
	}
}
