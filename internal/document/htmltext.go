package document

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ParseStextHTML turns MuPDF's structured-text HTML for one page into text
// items. MuPDF emits one absolutely positioned <p> per line, with top and
// left in points, holding <span>s that carry font-family and font-size. Each
// line becomes one item whose baseline sits DefaultAscent below its top.
func ParseStextHTML(doc string) (TextContent, error) {
	content := TextContent{Styles: make(map[string]TextStyle)}
	z := html.NewTokenizer(strings.NewReader(doc))

	var (
		line    *TextItem
		top     float64
		text    strings.Builder
		inSpans int
	)
	flush := func() {
		if line == nil {
			return
		}
		line.Text = strings.TrimRight(text.String(), " \t\r\n")
		if strings.TrimSpace(line.Text) != "" && line.Size > 0 {
			line.Y = top + DefaultAscent*line.Size
			content.Items = append(content.Items, *line)
		}
		line = nil
		text.Reset()
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return content, fmt.Errorf("parse page text: %w", err)
			}
			return content, nil

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			style := map[string]string{}
			if hasAttr {
				style = styleAttr(z)
			}
			switch string(name) {
			case "p":
				flush()
				line = &TextItem{X: ptValue(style["left"])}
				top = ptValue(style["top"])
			case "span":
				inSpans++
				if line == nil {
					continue
				}
				size := ptValue(style["font-size"])
				if size > line.Size {
					line.Size = size
				}
				if family := style["font-family"]; family != "" && line.Font == "" {
					line.Font = family
					if _, ok := content.Styles[family]; !ok {
						content.Styles[family] = TextStyle{Family: family}
					}
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p":
				flush()
			case "span":
				if inSpans > 0 {
					inSpans--
				}
			}

		case html.TextToken:
			if line != nil && inSpans > 0 {
				text.Write(z.Text())
			}
		}
	}
}

// styleAttr reads the style attribute of the current tag as a property map.
func styleAttr(z *html.Tokenizer) map[string]string {
	props := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		if string(key) == "style" {
			for _, decl := range strings.Split(string(val), ";") {
				k, v, ok := strings.Cut(decl, ":")
				if ok {
					props[strings.TrimSpace(strings.ToLower(k))] = strings.TrimSpace(v)
				}
			}
		}
		if !more {
			return props
		}
	}
}

// ptValue parses a CSS length in points or pixels, returning 0 when absent.
func ptValue(v string) float64 {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(strings.TrimSuffix(v, "pt"), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
