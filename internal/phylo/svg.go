package phylo

import (
	"bufio"
	"fmt"
	"html"
	"io"
)

// SVGOptions controls the rectangular tree drawing.
type SVGOptions struct {
	Width     int
	RowHeight int
	NodeSize  int
	FontSize  int
}

// DefaultSVGOptions mirrors the layout used on the detail page.
var DefaultSVGOptions = SVGOptions{Width: 900, RowHeight: 6, NodeSize: 10, FontSize: 11}

const (
	svgMargin    = 20
	svgLabelRoom = 260
	edgeColor    = "#262626"
)

type point struct{ x, y float64 }

// RenderSVG draws the tree as a rectangular phylogram with the annotation's
// node markers and tip labels. Branch lengths set the horizontal scale; a
// tree without lengths is drawn as a cladogram.
func RenderSVG(w io.Writer, t *Tree, ann Annotation, opts SVGOptions) error {
	if opts.Width <= 0 {
		opts = DefaultSVGOptions
	}
	tips := t.TipNodes()
	internal := t.InternalNodes()
	if len(ann.TipLabels) != len(tips) || len(ann.NodeLabels) != len(internal) {
		return fmt.Errorf("annotation does not match tree: %d/%d tips, %d/%d nodes",
			len(ann.TipLabels), len(tips), len(ann.NodeLabels), len(internal))
	}

	depth := make(map[*Node]float64)
	useLengths := false
	walk(t.root, func(n *Node) {
		if n != t.root && n.length > 0 {
			useLengths = true
		}
	})
	var maxDepth float64
	var place func(n *Node, d float64)
	place = func(n *Node, d float64) {
		depth[n] = d
		if d > maxDepth {
			maxDepth = d
		}
		for _, c := range n.children {
			step := 1.0
			if useLengths {
				step = c.length
			}
			place(c, d+step)
		}
	}
	place(t.root, 0)
	if maxDepth == 0 {
		maxDepth = 1
	}

	plotWidth := float64(opts.Width - 2*svgMargin - svgLabelRoom)
	pos := make(map[*Node]point, len(depth))
	for i, tip := range tips {
		pos[tip] = point{y: float64(svgMargin + i*opts.RowHeight)}
	}
	var layout func(n *Node) float64
	layout = func(n *Node) float64 {
		y := pos[n].y
		if !n.IsTip() {
			first := layout(n.children[0])
			last := first
			for _, c := range n.children[1:] {
				last = layout(c)
			}
			y = (first + last) / 2
		}
		pos[n] = point{x: svgMargin + depth[n]/maxDepth*plotWidth, y: y}
		return y
	}
	layout(t.root)

	height := 2*svgMargin + len(tips)*opts.RowHeight
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", opts.Width, height, opts.Width, height)
	fmt.Fprintf(bw, `<g stroke="%s" stroke-width="1" fill="none">`+"\n", edgeColor)
	walk(t.root, func(n *Node) {
		p := pos[n]
		for _, c := range n.children {
			cp := pos[c]
			fmt.Fprintf(bw, `<path d="M%.1f %.1fV%.1fH%.1f"/>`+"\n", p.x, p.y, cp.y, cp.x)
		}
	})
	bw.WriteString("</g>\n")

	r := float64(opts.NodeSize) / 2
	for i, n := range internal {
		p := pos[n]
		fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="%s"/>`+"\n", p.x, p.y, r, fill(ann.NodeColors[i]), edgeColor)
		if label := ann.NodeLabels[i]; label != "" {
			fmt.Fprintf(bw, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`+"\n", p.x+r+2, p.y-r, opts.FontSize, fill(ann.NodeColors[i]), html.EscapeString(label))
		}
	}
	for i, n := range tips {
		label := ann.TipLabels[i]
		if label == "" || ann.TipColors[i] == ColorNone {
			continue
		}
		p := pos[n]
		fmt.Fprintf(bw, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s" dominant-baseline="middle">%s</text>`+"\n", p.x+4, p.y, opts.FontSize, fill(ann.TipColors[i]), html.EscapeString(label))
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func fill(c Color) string {
	if c == ColorNone {
		return "none"
	}
	return string(c)
}
