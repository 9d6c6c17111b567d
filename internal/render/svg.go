package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"salesmind/internal/layout"
)

// WriteSVG serialises the scene as a standalone SVG document.
func (s *Scene) WriteSVG(w io.Writer) error {
	return WriteSVG(w, s.Snapshot())
}

// WriteSVG serialises a snapshot as a standalone SVG document.
func WriteSVG(w io.Writer, snap Snapshot) error {
	bw := bufio.NewWriter(w)
	width, height := num(snap.Width), num(snap.Height)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" preserveAspectRatio="xMidYMid meet">`+"\n",
		width, height, width, height)

	if len(snap.Gradients) > 0 {
		bw.WriteString("<defs>\n")
		for _, g := range snap.Gradients {
			fmt.Fprintf(bw, `<linearGradient id="%s" x1="0%%" y1="0%%" x2="100%%" y2="100%%">`, escape(g.ID))
			fmt.Fprintf(bw, `<stop offset="0%%" stop-color="%s" stop-opacity="%s"/>`, escape(g.Color), num(GradientLow))
			fmt.Fprintf(bw, `<stop offset="100%%" stop-color="%s" stop-opacity="%s"/>`, escape(g.Color), num(GradientHigh))
			bw.WriteString("</linearGradient>\n")
		}
		bw.WriteString("</defs>\n")
	}

	bw.WriteString(`<g class="links">` + "\n")
	for _, link := range snap.Links {
		fmt.Fprintf(bw, `<path class="link %s" data-source="%s" data-target="%s" d="%s" fill="none"/>`+"\n",
			escape(string(link.Kind)), escape(link.Source), escape(link.Target), escape(PathData(link)))
	}
	bw.WriteString("</g>\n")

	for _, c := range snap.Circles {
		class := "node"
		if c.IsCenter {
			class = "node center"
		}
		fmt.Fprintf(bw, `<g class="%s" data-id="%s">`, class, escape(c.ID))
		fmt.Fprintf(bw, `<circle cx="%s" cy="%s" r="%s" fill="%s"`, num(c.Center.X), num(c.Center.Y), num(c.Radius), escape(c.Fill))
		if c.Stroke != "" {
			fmt.Fprintf(bw, ` stroke="%s"`, escape(c.Stroke))
		}
		bw.WriteString("/>")
		for _, l := range c.Labels {
			fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="middle">%s</text>`, num(l.At.X), num(l.At.Y), escape(l.Text))
		}
		bw.WriteString("</g>\n")
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// PathData returns the SVG path for a quadratic link.
func PathData(link layout.Link) string {
	return fmt.Sprintf("M %s %s Q %s %s %s %s",
		num(link.From.X), num(link.From.Y),
		num(link.Control.X), num(link.Control.Y),
		num(link.To.X), num(link.To.Y))
}

// num rounds to two decimals so output is stable across platforms.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func escape(v string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}
