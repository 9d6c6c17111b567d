package layout

import (
	"math"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"salesmind/internal/research"
)

const (
	// CenterID identifies the company node.
	CenterID = "center"
	// RadiusFactor scales min(width, height) to the category ring radius.
	RadiusFactor = 0.35
	// PrimaryBow lifts the center-to-category curve control point.
	PrimaryBow = 30.0
	// MeshBow lifts the category-to-category curve control point.
	MeshBow = 40.0
	// MeshSkip is how many positions ahead a category links in the mesh.
	MeshSkip = 2
)

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one drawable graph vertex.
type Node struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Position Point                  `json:"position"`
	IsCenter bool                   `json:"is_center"`
	Color    string                 `json:"color,omitempty"`
	Index    int                    `json:"index"`
	Data     *research.CategoryData `json:"-"`
}

// LinkKind distinguishes center spokes from the category mesh.
type LinkKind string

const (
	LinkPrimary LinkKind = "primary"
	LinkMesh    LinkKind = "mesh"
)

// Link is a quadratic curve between two nodes.
type Link struct {
	Kind    LinkKind `json:"kind"`
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	From    Point    `json:"from"`
	Control Point    `json:"control"`
	To      Point    `json:"to"`
}

// Layout is the computed graph for one canvas size.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Radius float64 `json:"radius"`
	Nodes  []Node  `json:"nodes"`
	Links  []Link  `json:"links"`
}

// Center returns the company node.
func (l *Layout) Center() Node {
	for _, n := range l.Nodes {
		if n.IsCenter {
			return n
		}
	}
	return Node{}
}

// Node looks up a node by id.
func (l *Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Categories returns the non-center nodes in index order.
func (l *Layout) Categories() []Node {
	out := make([]Node, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		if !n.IsCenter {
			out = append(out, n)
		}
	}
	return out
}

// Compute places the center node at the canvas midpoint and category i at
// angle i*2π/N - π/2 on a ring of radius RadiusFactor*min(width, height).
// A nil result or zero categories yields only the center node.
func Compute(result *research.Result, width, height float64) Layout {
	center := Point{X: width / 2, Y: height / 2}
	radius := RadiusFactor * math.Min(width, height)

	company := ""
	var categories []research.Category
	if result != nil {
		company = result.CompanyName
		categories = result.Categories
	}

	out := Layout{Width: width, Height: height, Radius: radius}
	out.Nodes = append(out.Nodes, Node{
		ID:       CenterID,
		Name:     company,
		Position: center,
		IsCenter: true,
		Index:    -1,
	})

	n := len(categories)
	if n == 0 {
		return out
	}

	step := 2 * math.Pi / float64(n)
	for i, cat := range categories {
		angle := float64(i)*step - math.Pi/2
		data := cat.Data
		out.Nodes = append(out.Nodes, Node{
			ID:   cat.Key,
			Name: DisplayName(cat.Key),
			Position: Point{
				X: center.X + radius*math.Cos(angle),
				Y: center.Y + radius*math.Sin(angle),
			},
			Color: ColorFor(cat.Key),
			Index: i,
			Data:  &data,
		})
	}

	ring := out.Nodes[1:]
	for _, node := range ring {
		out.Links = append(out.Links, curve(LinkPrimary, out.Nodes[0], node, PrimaryBow))
	}
	for i, node := range ring {
		j := MeshTarget(i, n)
		if j == i {
			continue
		}
		out.Links = append(out.Links, curve(LinkMesh, node, ring[j], MeshBow))
	}
	return out
}

// MeshTarget returns the category index that index i links to in the mesh.
func MeshTarget(i, n int) int {
	if n <= 0 {
		return i
	}
	return (i + MeshSkip) % n
}

func curve(kind LinkKind, from, to Node, bow float64) Link {
	mid := Point{
		X: (from.Position.X + to.Position.X) / 2,
		Y: (from.Position.Y+to.Position.Y)/2 - bow,
	}
	return Link{
		Kind:    kind,
		Source:  from.ID,
		Target:  to.ID,
		From:    from.Position,
		Control: mid,
		To:      to.Position,
	}
}

// DisplayName upper-cases the first letter of a category key and leaves the
// rest untouched.
func DisplayName(key string) string {
	first, size := utf8.DecodeRuneInString(key)
	if first == utf8.RuneError {
		return key
	}
	// Casers carry state, so one is built per call.
	return cases.Upper(language.English).String(string(first)) + key[size:]
}
