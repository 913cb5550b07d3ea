package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/render"
	"github.com/matzehuels/molforge/pkg/topology"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds positions, cells and periodicity to labels.
	Detailed bool
	// Scale multiplies coordinates before layout. Zero means 1.
	Scale float64
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

func header(buf *bytes.Buffer, nodeAttrs string) {
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  splines=true;\n")
	fmt.Fprintf(buf, "  node [%s];\n\n", nodeAttrs)
}

func pos(p r3.Vec, scale float64) string {
	return fmt.Sprintf("pos=\"%.3f,%.3f!\"", p.X*scale, p.Y*scale)
}

// GraphToDOT converts a topology graph to Graphviz DOT. The result can be
// rendered with [RenderSVG], [RenderPDF] or [RenderPNG].
func GraphToDOT(g *topology.Graph, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "shape=circle, style=filled, fillcolor=white, fontsize=14")
	scale := opts.scale()

	for _, v := range g.Vertices() {
		label := fmt.Sprintf("v%d", v.ID())
		if opts.Detailed {
			p := v.Position()
			label += fmt.Sprintf("\n(%.2f, %.2f, %.2f)\ncell %v", p.X, p.Y, p.Z, v.Cell())
		}
		fmt.Fprintf(&buf, "  \"v%d\" [label=%q, %s];\n", v.ID(), label, pos(v.Position(), scale))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		style := "solid"
		if e.IsPeriodic() {
			style = "dashed"
		}
		ids := e.VertexIDs()
		if !g.HasLinkers() {
			attrs := []string{fmt.Sprintf("style=%s", style)}
			if opts.Detailed && e.IsPeriodic() {
				attrs = append(attrs, fmt.Sprintf("label=%q", fmt.Sprint(e.Periodicity())))
			}
			fmt.Fprintf(&buf, "  \"v%d\" -- \"v%d\" [%s];\n", ids[0], ids[1], strings.Join(attrs, ", "))
			continue
		}

		label := fmt.Sprintf("e%d", e.ID())
		if opts.Detailed && e.IsPeriodic() {
			label += "\n" + fmt.Sprint(e.Periodicity())
		}
		fmt.Fprintf(&buf, "  \"e%d\" [label=%q, shape=diamond, fillcolor=lightgrey, fontsize=10, %s];\n",
			e.ID(), label, pos(e.Position(), scale))
		last := len(ids) - 1
		for k, id := range ids {
			s := "solid"
			if k == last {
				s = style
			}
			fmt.Fprintf(&buf, "  \"e%d\" -- \"v%d\" [style=%s];\n", e.ID(), id, s)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// MoleculeToDOT converts the bond graph of m to Graphviz DOT. Double and
// triple bonds are drawn with parallel strokes.
func MoleculeToDOT(m *molecule.Molecule, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "shape=circle, style=filled, fillcolor=white, fontsize=10, width=0.3, fixedsize=true")
	scale := opts.scale()

	for _, a := range m.Atoms() {
		label := string(a.Element)
		if opts.Detailed {
			label = fmt.Sprintf("%s%d", a.Element, a.ID)
		}
		if a.Charge != 0 {
			label += fmt.Sprintf("%+d", a.Charge)
		}
		fmt.Fprintf(&buf, "  \"a%d\" [label=%q, %s];\n", a.ID, label, pos(m.Position(a.ID), scale))
	}

	buf.WriteString("\n")
	for _, b := range m.Bonds() {
		attrs := []string{}
		if b.Order > 1 {
			attrs = append(attrs, fmt.Sprintf("color=\"%s\"", strings.TrimSuffix(strings.Repeat("black:", b.Order), ":")))
		}
		if b.IsPeriodic() {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&buf, "  \"a%d\" -- \"a%d\"", b.Atom1, b.Atom2)
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(attrs, ", "))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG lays out a DOT graph with the neato engine, keeping pinned
// positions, and renders it to SVG.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
