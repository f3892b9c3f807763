package docx

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

type block interface {
	isBlock()
}

type paragraph struct {
	styleID string
	numID   string
	level   int
	runs    []run
}

func (*paragraph) isBlock() {}

func (p *paragraph) listItem() bool {
	return p.numID != "" && p.numID != "0"
}

type table struct {
	rows [][]cell
}

func (*table) isBlock() {}

type cell struct {
	blocks []block
}

type runFormat struct {
	bold      bool
	italic    bool
	strike    bool
	vertAlign string
	styleID   string
	href      string
}

type run struct {
	format runFormat
	// text uses "\n" for line breaks.
	text string
}

// skipped elements never contribute text to the body.
var skipped = map[string]struct{}{
	"drawing":          {},
	"pict":             {},
	"object":           {},
	"AlternateContent": {},
	"del":              {},
	"moveFrom":         {},
	"delText":          {},
	"instrText":        {},
	"rPrChange":        {},
	"pPrChange":        {},
}

type documentParser struct {
	dec  *xml.Decoder
	rels relationships
}

func parseDocument(r io.Reader, rels relationships) ([]block, error) {
	p := &documentParser{dec: xml.NewDecoder(r), rels: rels}
	return p.blocks("")
}

// blocks collects paragraphs and tables until the end element named end, or
// EOF when end is empty.
func (p *documentParser) blocks(end string) ([]block, error) {
	var out []block
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			if end == "" {
				return out, nil
			}
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para, err := p.paragraph()
				if err != nil {
					return nil, err
				}
				out = append(out, para)
			case "tbl":
				tbl, err := p.table()
				if err != nil {
					return nil, err
				}
				out = append(out, tbl)
			default:
				if _, ok := skipped[t.Name.Local]; ok {
					if err := p.dec.Skip(); err != nil {
						return nil, err
					}
				}
			}
		case xml.EndElement:
			if end != "" && t.Name.Local == end {
				return out, nil
			}
		}
	}
}

func (p *documentParser) paragraph() (*paragraph, error) {
	para := &paragraph{}
	var href string
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, unexpected(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				para.styleID = attr(t, "val")
			case "ilvl":
				para.level, _ = strconv.Atoi(attr(t, "val"))
			case "numId":
				para.numID = attr(t, "val")
			case "hyperlink":
				href = p.resolveLink(t)
			case "r":
				r, err := p.run(href)
				if err != nil {
					return nil, err
				}
				para.runs = append(para.runs, r)
			case "p", "tbl":
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			default:
				if _, ok := skipped[t.Name.Local]; ok {
					if err := p.dec.Skip(); err != nil {
						return nil, err
					}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "hyperlink":
				href = ""
			case "p":
				return para, nil
			}
		}
	}
}

func (p *documentParser) run(href string) (run, error) {
	r := run{format: runFormat{href: href}}
	var text strings.Builder
	inProps := false
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return run{}, unexpected(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if _, ok := skipped[name]; ok {
				if err := p.dec.Skip(); err != nil {
					return run{}, err
				}
				continue
			}
			switch name {
			case "rPr":
				inProps = true
			case "b":
				if inProps {
					r.format.bold = toggle(t)
				}
			case "i":
				if inProps {
					r.format.italic = toggle(t)
				}
			case "strike", "dstrike":
				if inProps {
					r.format.strike = r.format.strike || toggle(t)
				}
			case "vertAlign":
				switch attr(t, "val") {
				case "superscript":
					r.format.vertAlign = "sup"
				case "subscript":
					r.format.vertAlign = "sub"
				}
			case "rStyle":
				r.format.styleID = attr(t, "val")
			case "t":
				value, err := p.text()
				if err != nil {
					return run{}, err
				}
				text.WriteString(value)
			case "tab":
				text.WriteString("\t")
			case "br", "cr":
				if kind := attr(t, "type"); kind != "page" && kind != "column" {
					text.WriteString("\n")
				}
			case "noBreakHyphen":
				text.WriteString("-")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "rPr":
				inProps = false
			case "r":
				r.text = text.String()
				return r, nil
			}
		}
	}
}

func (p *documentParser) text() (string, error) {
	var b strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", unexpected(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		}
	}
}

func (p *documentParser) table() (*table, error) {
	tbl := &table{}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, unexpected(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				tbl.rows = append(tbl.rows, nil)
			case "tc":
				blocks, err := p.blocks("tc")
				if err != nil {
					return nil, err
				}
				if len(tbl.rows) == 0 {
					tbl.rows = append(tbl.rows, nil)
				}
				last := len(tbl.rows) - 1
				tbl.rows[last] = append(tbl.rows[last], cell{blocks: blocks})
			case "tblPr", "tblGrid", "trPr":
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return tbl, nil
			}
		}
	}
}

func (p *documentParser) resolveLink(start xml.StartElement) string {
	if id := attr(start, "id"); id != "" {
		if rel, ok := p.rels[id]; ok {
			target := rel.Target
			if anchor := attr(start, "anchor"); anchor != "" {
				target += "#" + anchor
			}
			return target
		}
	}
	if anchor := attr(start, "anchor"); anchor != "" {
		return "#" + anchor
	}
	return ""
}

func attr(start xml.StartElement, local string) string {
	for _, a := range start.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggle reads an OOXML on/off property such as <w:b/> or <w:b w:val="0"/>.
func toggle(start xml.StartElement) bool {
	switch strings.ToLower(attr(start, "val")) {
	case "0", "false", "off", "none":
		return false
	default:
		return true
	}
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
