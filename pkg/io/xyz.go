package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/molecule"
)

// ReadXYZ decodes an XYZ file. The format carries no bonds.
func ReadXYZ(r io.Reader) (*molecule.Molecule, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, formatError(FormatXYZ, 1, "missing atom count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n < 0 {
		return nil, formatError(FormatXYZ, 1, "invalid atom count %q", sc.Text())
	}
	if !sc.Scan() {
		return nil, formatError(FormatXYZ, 2, "missing comment line")
	}

	atoms := make([]molecule.Atom, n)
	positions := make([]r3.Vec, n)
	for i := range n {
		line := i + 3
		if !sc.Scan() {
			return nil, formatError(FormatXYZ, line, "expected %d atoms, got %d", n, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, formatError(FormatXYZ, line, "want element and 3 coordinates, got %q", sc.Text())
		}
		var xyz [3]float64
		for k := range 3 {
			v, err := strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, formatError(FormatXYZ, line, "invalid coordinate %q", fields[k+1])
			}
			xyz[k] = v
		}
		atoms[i] = molecule.Atom{ID: i, Element: molecule.ParseElement(fields[0])}
		positions[i] = r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	}

	m, err := molecule.New(atoms, nil, positions)
	if err != nil {
		return nil, formatError(FormatXYZ, 1, "%v", err)
	}
	return m, nil
}

// WriteXYZ encodes m as an XYZ file. Bonds are not written.
func WriteXYZ(w io.Writer, m *molecule.Molecule) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n\n", m.NumAtoms())
	for _, a := range m.Atoms() {
		p := m.Position(a.ID)
		fmt.Fprintf(bw, "%s %f %f %f\n", a.Element, p.X, p.Y, p.Z)
	}
	return bw.Flush()
}
