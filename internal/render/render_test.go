package render_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"salesmind/internal/layout"
	"salesmind/internal/render"
	"salesmind/internal/research"
)

func sampleLayout(company string, keys ...string) layout.Layout {
	r := &research.Result{CompanyName: company}
	for _, k := range keys {
		r.Categories = append(r.Categories, research.Category{Key: k})
	}
	return layout.Compute(r, 1200, 800)
}

func TestRenderIsIdempotent(t *testing.T) {
	l := sampleLayout("Acme Corp", "overview", "news", "financials", "hiring")
	scene := render.NewScene()

	render.Render(scene, l, nil)
	first := scene.Snapshot()
	render.Render(scene, l, nil)
	second := scene.Snapshot()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second render changed the scene (-first +second):\n%s", diff)
	}
	if len(first.Circles) != 5 {
		t.Fatalf("expected 5 circles, got %d", len(first.Circles))
	}
	if len(first.Links) != 8 {
		t.Fatalf("expected 4 primary + 4 mesh links, got %d", len(first.Links))
	}
}

func TestRenderReplacesPreviousScene(t *testing.T) {
	scene := render.NewScene()
	render.Render(scene, sampleLayout("Acme Corp", "overview", "news", "financials"), func(layout.Node) {})
	render.Render(scene, sampleLayout("Globex", "hiring"), func(layout.Node) {})

	snap := scene.Snapshot()
	if len(snap.Circles) != 2 {
		t.Fatalf("expected center + 1 node after redraw, got %d", len(snap.Circles))
	}
	if scene.Click("overview") {
		t.Fatal("stale click target survived redraw")
	}
	if diff := cmp.Diff([]string{"hiring"}, snap.Targets); diff != "" {
		t.Fatalf("unexpected targets (-want +got):\n%s", diff)
	}
}

func TestRenderDrawsPrimaryLinksBeforeMesh(t *testing.T) {
	scene := render.NewScene()
	render.Render(scene, sampleLayout("Acme", "a", "b", "c", "d"), nil)
	snap := scene.Snapshot()
	seenMesh := false
	for _, link := range snap.Links {
		if link.Kind == layout.LinkMesh {
			seenMesh = true
			continue
		}
		if seenMesh {
			t.Fatalf("primary link drawn after mesh: %+v", link)
		}
	}
}

func TestNodeColorsAndGradients(t *testing.T) {
	scene := render.NewScene()
	render.Render(scene, sampleLayout("Acme", "news", "mystery"), nil)
	snap := scene.Snapshot()

	want := []render.Gradient{
		{ID: "gradient-center", Color: layout.DefaultColor},
		{ID: "gradient-news", Color: "#EC4899"},
		{ID: "gradient-mystery", Color: layout.DefaultColor},
	}
	if diff := cmp.Diff(want, snap.Gradients); diff != "" {
		t.Fatalf("gradients mismatch (-want +got):\n%s", diff)
	}
	for _, c := range snap.Circles {
		if c.IsCenter {
			if c.Radius != render.CenterRadius {
				t.Fatalf("unexpected center radius %f", c.Radius)
			}
			continue
		}
		if c.Radius != render.NodeRadius {
			t.Fatalf("unexpected node radius %f", c.Radius)
		}
		if c.Fill != "url(#gradient-"+c.ID+")" {
			t.Fatalf("unexpected fill %q", c.Fill)
		}
		if c.Labels[0].At.Y != c.Center.Y+render.NodeLabelOffset {
			t.Fatalf("label should sit below node: %+v", c.Labels[0])
		}
	}
}

func TestCenterLines(t *testing.T) {
	center := layout.Node{ID: layout.CenterID, Name: "Acme Corp Holdings", Position: layout.Point{X: 100, Y: 100}}
	lines := render.CenterLines(center)
	want := []render.Label{
		{Text: "Acme", At: layout.Point{X: 100, Y: 92}},
		{Text: "Corp Holdings", At: layout.Point{X: 100, Y: 110}},
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("two-line label mismatch (-want +got):\n%s", diff)
	}

	single := render.CenterLines(layout.Node{Name: "Initech", Position: layout.Point{X: 10, Y: 10}})
	if len(single) != 1 || single[0].At.Y != 15 || single[0].Text != "Initech" {
		t.Fatalf("unexpected single-line label: %+v", single)
	}
}

func TestSceneClickDispatchesNode(t *testing.T) {
	scene := render.NewScene()
	var clicked []string
	render.Render(scene, sampleLayout("Acme", "overview", "news"), func(n layout.Node) {
		clicked = append(clicked, n.ID)
	})

	if !scene.Click("news") {
		t.Fatal("expected news to be clickable")
	}
	if scene.Click(layout.CenterID) {
		t.Fatal("center node must not be a click target")
	}
	if scene.Click("missing") {
		t.Fatal("unknown node should not dispatch")
	}
	if diff := cmp.Diff([]string{"news"}, clicked); diff != "" {
		t.Fatalf("unexpected clicks (-want +got):\n%s", diff)
	}
}

func TestWriteSVGProducesWellFormedDocument(t *testing.T) {
	scene := render.NewScene()
	render.Render(scene, sampleLayout("Procter & Gamble", "overview", "news", "financials"), nil)

	var buf bytes.Buffer
	if err := scene.WriteSVG(&buf); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	out := buf.String()

	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		if _, err := dec.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("svg is not well-formed: %v\n%s", err, out)
		}
	}
	for _, fragment := range []string{
		`viewBox="0 0 1200 800"`,
		`preserveAspectRatio="xMidYMid meet"`,
		`Procter</text>`,
		`&amp; Gamble</text>`,
		`data-id="financials"`,
		`class="link mesh"`,
		`stroke="#10B981"`,
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in svg:\n%s", fragment, out)
		}
	}
}

func TestPathData(t *testing.T) {
	link := layout.Link{
		From:    layout.Point{X: 600, Y: 400},
		Control: layout.Point{X: 600, Y: 230.004},
		To:      layout.Point{X: 600, Y: 120},
	}
	if got := render.PathData(link); got != "M 600 400 Q 600 230 600 120" {
		t.Fatalf("unexpected path %q", got)
	}
}
