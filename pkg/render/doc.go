// Package render turns topology graphs and constructed molecules into
// pictures.
//
// The [nodelink] subpackage produces Graphviz DOT and SVG. [ToPDF] and
// [ToPNG] convert any SVG further using the external rsvg-convert tool
// (from librsvg):
//
//	dot := nodelink.GraphToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := render.ToPNG(svg, 2.0)
//
// [nodelink]: github.com/matzehuels/molforge/pkg/render/nodelink
package render
