// Package nodelink renders topology graphs and molecules as node-link
// diagrams.
//
// # Overview
//
// Vertices (or atoms) become nodes placed at their x/y coordinates and the
// neato engine keeps them there, so the picture looks like the structure
// seen along z. In graphs with linkers every edge is drawn as a small
// diamond joined to its vertices. Periodic connections are dashed.
//
// # Usage
//
//	dot := nodelink.GraphToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
//	dot = nodelink.MoleculeToDOT(result.Molecule, nodelink.Options{})
//
// # Options
//
//   - Detailed: labels carry positions, cells and periodicity
//   - Scale: multiplies coordinates before layout (default 1)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
