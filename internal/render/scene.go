package render

import (
	"sync"

	"salesmind/internal/layout"
)

// Circle is a drawn node disc.
type Circle struct {
	ID       string       `json:"id"`
	Center   layout.Point `json:"center"`
	Radius   float64      `json:"radius"`
	Fill     string       `json:"fill"`
	Stroke   string       `json:"stroke,omitempty"`
	IsCenter bool         `json:"is_center"`
	Labels   []Label      `json:"labels"`
}

// Snapshot is an immutable copy of a scene's drawables.
type Snapshot struct {
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Gradients []Gradient    `json:"gradients"`
	Links     []layout.Link `json:"links"`
	Circles   []Circle      `json:"circles"`
	Targets   []string      `json:"targets"`
}

// Scene is a recording Surface. It is safe for concurrent use.
type Scene struct {
	mu      sync.RWMutex
	snap    Snapshot
	targets map[string]func()
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{targets: make(map[string]func())}
}

func (s *Scene) Clear(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{Width: width, Height: height}
	s.targets = make(map[string]func())
}

func (s *Scene) DrawGradient(g Gradient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Gradients = append(s.snap.Gradients, g)
}

func (s *Scene) DrawLink(link layout.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Links = append(s.snap.Links, link)
}

func (s *Scene) DrawCenter(node layout.Node, gradientID string, lines []Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Circles = append(s.snap.Circles, Circle{
		ID:       node.ID,
		Center:   node.Position,
		Radius:   CenterRadius,
		Fill:     "url(#" + gradientID + ")",
		IsCenter: true,
		Labels:   append([]Label(nil), lines...),
	})
}

func (s *Scene) DrawNode(node layout.Node, gradientID string, label Label, onClick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Circles = append(s.snap.Circles, Circle{
		ID:     node.ID,
		Center: node.Position,
		Radius: NodeRadius,
		Fill:   "url(#" + gradientID + ")",
		Stroke: node.Color,
		Labels: []Label{label},
	})
	if onClick != nil {
		s.targets[node.ID] = onClick
		s.snap.Targets = append(s.snap.Targets, node.ID)
	}
}

// Click dispatches to the target registered for id and reports whether one
// existed. The handler runs without the scene lock held.
func (s *Scene) Click(id string) bool {
	s.mu.RLock()
	handler, ok := s.targets[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	handler()
	return true
}

// Snapshot copies the current drawables.
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{
		Width:     s.snap.Width,
		Height:    s.snap.Height,
		Gradients: append([]Gradient(nil), s.snap.Gradients...),
		Links:     append([]layout.Link(nil), s.snap.Links...),
		Circles:   make([]Circle, len(s.snap.Circles)),
		Targets:   append([]string(nil), s.snap.Targets...),
	}
	for i, c := range s.snap.Circles {
		c.Labels = append([]Label(nil), c.Labels...)
		out.Circles[i] = c
	}
	return out
}

// Empty reports whether nothing has been drawn since the last Clear.
func (s *Scene) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.Circles) == 0
}
