package render

import (
	"strings"
	"unicode"

	"salesmind/internal/layout"
)

// Geometry shared by every surface.
const (
	CenterRadius    = 50.0
	NodeRadius      = 40.0
	NodeLabelOffset = 60.0
	GradientLow     = 0.1
	GradientHigh    = 0.3
)

// Label is a positioned line of text.
type Label struct {
	Text string       `json:"text"`
	At   layout.Point `json:"at"`
}

// Gradient is a per-category fill.
type Gradient struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// Surface receives drawing commands.
type Surface interface {
	Clear(width, height float64)
	DrawGradient(g Gradient)
	DrawLink(link layout.Link)
	DrawCenter(node layout.Node, gradientID string, lines []Label)
	DrawNode(node layout.Node, gradientID string, label Label, onClick func())
}

// Render replaces the surface contents with the given layout. onClick, when
// non-nil, receives the clicked category node.
func Render(s Surface, l layout.Layout, onClick func(layout.Node)) {
	s.Clear(l.Width, l.Height)

	center := l.Center()
	s.DrawGradient(Gradient{ID: GradientID(center.ID), Color: layout.DefaultColor})
	categories := l.Categories()
	for _, node := range categories {
		s.DrawGradient(Gradient{ID: GradientID(node.ID), Color: node.Color})
	}
	for _, link := range l.Links {
		if link.Kind == layout.LinkPrimary {
			s.DrawLink(link)
		}
	}
	for _, link := range l.Links {
		if link.Kind == layout.LinkMesh {
			s.DrawLink(link)
		}
	}

	s.DrawCenter(center, GradientID(center.ID), CenterLines(center))

	for _, node := range categories {
		label := Label{
			Text: node.Name,
			At:   layout.Point{X: node.Position.X, Y: node.Position.Y + NodeLabelOffset},
		}
		var handler func()
		if onClick != nil {
			n := node
			handler = func() { onClick(n) }
		}
		s.DrawNode(node, GradientID(node.ID), label, handler)
	}
}

// GradientID names the gradient for a category node.
func GradientID(nodeID string) string {
	return "gradient-" + nodeID
}

// CenterLines splits the company name on its first whitespace into two
// stacked lines; a single word stays on one line just below the midpoint.
func CenterLines(center layout.Node) []Label {
	name := strings.TrimSpace(center.Name)
	pos := center.Position
	idx := strings.IndexFunc(name, unicode.IsSpace)
	if idx < 0 {
		return []Label{{Text: name, At: layout.Point{X: pos.X, Y: pos.Y + 5}}}
	}
	first := name[:idx]
	rest := strings.TrimSpace(name[idx:])
	return []Label{
		{Text: first, At: layout.Point{X: pos.X, Y: pos.Y - 8}},
		{Text: rest, At: layout.Point{X: pos.X, Y: pos.Y + 10}},
	}
}
