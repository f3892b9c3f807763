package docx

import (
	"archive/zip"
	"encoding/xml"
	"strings"
)

type styleSheet map[string]string

type numbering struct {
	// formats maps numId -> level -> numFmt.
	formats map[string]map[int]string
}

type relationships map[string]relationship

type relationship struct {
	Target   string
	External bool
}

func defaultParagraphStyles() map[string]string {
	styles := map[string]string{
		"normal":         "p",
		"body text":      "p",
		"list paragraph": "p",
	}
	for _, level := range []string{"1", "2", "3", "4", "5", "6"} {
		styles["heading "+level] = "h" + level
	}
	return styles
}

// Run styles map to a wrapping tag; an empty tag keeps the text as is.
func defaultRunStyles() map[string]string {
	return map[string]string{
		"default paragraph font": "",
		"hyperlink":              "",
		"strong":                 "strong",
		"emphasis":               "em",
	}
}

func normalizeStyleName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// name resolves a style id to its display name, falling back to the id.
func (s styleSheet) name(id string) string {
	if name, ok := s[id]; ok && name != "" {
		return name
	}
	return id
}

// ordered reports whether the list level uses a numeric format.
func (n numbering) ordered(numID string, level int) bool {
	levels, ok := n.formats[numID]
	if !ok {
		return false
	}
	format, ok := levels[level]
	if !ok {
		return false
	}
	return format != "bullet" && format != "none" && format != ""
}

func readStyles(f *zip.File) (styleSheet, error) {
	var doc struct {
		Styles []struct {
			Type string `xml:"type,attr"`
			ID   string `xml:"styleId,attr"`
			Name struct {
				Val string `xml:"val,attr"`
			} `xml:"name"`
		} `xml:"style"`
	}
	if err := decodePart(f, &doc); err != nil {
		return nil, err
	}
	styles := make(styleSheet, len(doc.Styles))
	for _, style := range doc.Styles {
		styles[style.ID] = style.Name.Val
	}
	return styles, nil
}

func readNumbering(f *zip.File) (numbering, error) {
	var doc struct {
		Abstract []struct {
			ID     string `xml:"abstractNumId,attr"`
			Levels []struct {
				Level  int `xml:"ilvl,attr"`
				Format struct {
					Val string `xml:"val,attr"`
				} `xml:"numFmt"`
			} `xml:"lvl"`
		} `xml:"abstractNum"`
		Nums []struct {
			ID       string `xml:"numId,attr"`
			Abstract struct {
				Val string `xml:"val,attr"`
			} `xml:"abstractNumId"`
		} `xml:"num"`
	}
	if err := decodePart(f, &doc); err != nil {
		return numbering{}, err
	}

	abstract := make(map[string]map[int]string, len(doc.Abstract))
	for _, a := range doc.Abstract {
		levels := make(map[int]string, len(a.Levels))
		for _, lvl := range a.Levels {
			levels[lvl.Level] = lvl.Format.Val
		}
		abstract[a.ID] = levels
	}

	formats := make(map[string]map[int]string, len(doc.Nums))
	for _, num := range doc.Nums {
		if levels, ok := abstract[num.Abstract.Val]; ok {
			formats[num.ID] = levels
		}
	}
	return numbering{formats: formats}, nil
}

func readRelationships(f *zip.File) (relationships, error) {
	var doc struct {
		Items []struct {
			ID         string `xml:"Id,attr"`
			Target     string `xml:"Target,attr"`
			TargetMode string `xml:"TargetMode,attr"`
		} `xml:"Relationship"`
	}
	if err := decodePart(f, &doc); err != nil {
		return nil, err
	}
	rels := make(relationships, len(doc.Items))
	for _, item := range doc.Items {
		rels[item.ID] = relationship{
			Target:   item.Target,
			External: strings.EqualFold(item.TargetMode, "External"),
		}
	}
	return rels, nil
}

func decodePart(f *zip.File, v any) error {
	rc, err := openPart(f)
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}
