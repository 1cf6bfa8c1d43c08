package util

import (
	"fmt"
	"html"
	"os"
	"regexp"
	"sort"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
/// SVGEmbeddedText
///////////////////////////////////////////////////////////////////////////////

// Holds information about text that is embedded into SVG files
type SVGEmbeddedText struct {
	Layer       int
	X, Y        int
	Name        string
	Content     string
	Style       string
	Anchor      string   // start, middle or end
	MaxWidth    int      // Maximum width for text wrapping
	LineSpacing float64  // Spacing between lines when wrapped
	Lines       []string // Text split into lines for wrapping
}

func NewSVGEmbeddedText(name, text, style string, x, y, layer int) (*SVGEmbeddedText, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if style == "" {
		style = "font-size: 12px; font-family: Arial; fill: #222;"
	}
	return &SVGEmbeddedText{
		Layer:       layer,
		X:           x,
		Y:           y,
		Name:        name,
		Content:     text,
		Style:       style,
		Anchor:      "start",
		LineSpacing: 1.2,
		Lines:       []string{text},
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
/// SVGRect
///////////////////////////////////////////////////////////////////////////////

// SVGRect is a filled rectangle, the only shape the charts need.
type SVGRect struct {
	Layer         int
	X, Y          int
	Width, Height int
	Name          string
	Fill          string
	Title         string // tooltip
}

///////////////////////////////////////////////////////////////////////////////
/// SVG
///////////////////////////////////////////////////////////////////////////////

const SvgHeader string = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="" height="" viewBox=""
	version="1.1"
	xmlns="http://www.w3.org/2000/svg"
	xmlns:svg="http://www.w3.org/2000/svg">
`
const SvgFooter string = `
</svg>
`

var fontSizeRegex = regexp.MustCompile(`font-size:\s*(\d+)px`)

// An object for building and writing simple SVG documents
type SVG struct {
	Name          string
	Rects         []*SVGRect
	Text          []*SVGEmbeddedText
	Width, Height int
}

func NewBlankSVG(width, height int) (*SVG, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("svg dimensions must be positive, got %dx%d", width, height)
	}
	return &SVG{
		Name:   "blank",
		Rects:  []*SVGRect{},
		Text:   []*SVGEmbeddedText{},
		Width:  width,
		Height: height,
	}, nil
}

func (s *SVG) AddRect(r *SVGRect) {
	if r.Fill == "" {
		r.Fill = "#3b6ea5"
	}
	s.Rects = append(s.Rects, r)
}

func (s *SVG) AddText(name, text, style string, x, y, layer int) (*SVGEmbeddedText, error) {
	i, err := NewSVGEmbeddedText(name, text, style, x, y, layer)
	if err != nil {
		return nil, err
	}
	s.Text = append(s.Text, i)
	return i, nil
}

// AddWrappedText adds text with automatic wrapping based on maxWidth.
// lineSpacing is in tenths of the font size.
func (s *SVG) AddWrappedText(name, text, style string, x, y, maxWidth, lineSpacing, layer int) (*SVGEmbeddedText, error) {
	i, err := NewSVGEmbeddedText(name, text, style, x, y, layer)
	if err != nil {
		return nil, err
	}
	i.MaxWidth = maxWidth
	i.LineSpacing = float64(lineSpacing) / 10.0

	// average character width is roughly 0.6 times the font size
	avgCharWidth := float64(fontSize(style, 12)) * 0.6
	charsPerLine := int(float64(maxWidth) / avgCharWidth)

	if charsPerLine > 0 && len(text) > charsPerLine {
		var lines []string
		currentLine := ""
		for _, word := range strings.Fields(text) {
			if currentLine == "" || len(currentLine)+len(word)+1 <= charsPerLine {
				if currentLine != "" {
					currentLine += " "
				}
				currentLine += word
			} else {
				lines = append(lines, currentLine)
				currentLine = word
			}
		}
		if currentLine != "" {
			lines = append(lines, currentLine)
		}
		i.Lines = lines
	}

	s.Text = append(s.Text, i)
	return i, nil
}

func fontSize(style string, def int) int {
	size := def
	if m := fontSizeRegex.FindStringSubmatch(style); len(m) > 1 {
		if n, err := fmt.Sscanf(m[1], "%d", &size); err != nil || n == 0 {
			size = def
		}
	}
	return size
}

func (s *SVG) ToSVGFile(filePath string) error {
	svgContent, err := s.ToSVG()
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, []byte(svgContent), 0644)
}

// ToSVG renders the document. Elements are drawn in layer order, rectangles
// before text within a layer.
func (s *SVG) ToSVG() (string, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return "", fmt.Errorf("svg %q has no size", s.Name)
	}
	var b strings.Builder
	header := strings.Replace(SvgHeader, `width=""`, fmt.Sprintf(`width="%d"`, s.Width), 1)
	header = strings.Replace(header, `height=""`, fmt.Sprintf(`height="%d"`, s.Height), 1)
	header = strings.Replace(header, `viewBox=""`, fmt.Sprintf(`viewBox="0 0 %d %d"`, s.Width, s.Height), 1)
	b.WriteString(header)

	type element struct {
		layer int
		order int
		svg   string
	}
	var elements []element

	for _, r := range s.Rects {
		title := ""
		if r.Title != "" {
			title = "<title>" + html.EscapeString(r.Title) + "</title>"
		}
		elements = append(elements, element{r.Layer, 0, fmt.Sprintf(
			`<rect id="%s" x="%d" y="%d" width="%d" height="%d" fill="%s">%s</rect>`,
			html.EscapeString(r.Name), r.X, r.Y, r.Width, r.Height, html.EscapeString(r.Fill), title)})
	}

	for _, text := range s.Text {
		lineHeight := int(float64(fontSize(text.Style, 24)) * text.LineSpacing)
		for i, line := range text.Lines {
			elements = append(elements, element{text.Layer, 1, fmt.Sprintf(
				`<text x="%d" y="%d" text-anchor="%s" style="%s">%s</text>`,
				text.X, text.Y+i*lineHeight, text.Anchor, html.EscapeString(text.Style), html.EscapeString(line))})
		}
	}

	sort.SliceStable(elements, func(i, j int) bool {
		if elements[i].layer != elements[j].layer {
			return elements[i].layer < elements[j].layer
		}
		return elements[i].order < elements[j].order
	})
	for _, e := range elements {
		b.WriteString(e.svg)
		b.WriteByte('\n')
	}

	b.WriteString(SvgFooter)
	return b.String(), nil
}
