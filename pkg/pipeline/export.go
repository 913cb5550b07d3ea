package pipeline

import (
	"bytes"
	"fmt"

	molio "github.com/matzehuels/molforge/pkg/io"
	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/render/nodelink"
)

// Export writes m in every requested format.
func Export(m *molecule.Molecule, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	var dot string

	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT, FormatSVG, FormatPNG, FormatPDF:
			if dot == "" {
				dot = nodelink.MoleculeToDOT(m, nodelink.Options{Scale: 40})
			}
			data, err = renderDiagram(dot, format)
		default:
			var buf bytes.Buffer
			err = molio.Write(&buf, m, molio.Format(format))
			data = buf.Bytes()
		}

		if err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderDiagram(dot, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		return nodelink.RenderSVG(dot)
	case FormatPNG:
		return nodelink.RenderPNG(dot, 2.0)
	case FormatPDF:
		return nodelink.RenderPDF(dot)
	}
	return []byte(dot), nil
}
