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

// V2000 charge codes in the atom block.
var (
	chargeFromCode = map[int]int{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}
	codeFromCharge = map[int]int{3: 1, 2: 2, 1: 3, -1: 5, -2: 6, -3: 7}
)

// ReadMol decodes a V2000 molfile.
func ReadMol(r io.Reader) (*molecule.Molecule, error) {
	sc := bufio.NewScanner(r)
	return readMolBlock(sc, FormatMol)
}

// ReadSDF decodes the first record of a structure-data file.
func ReadSDF(r io.Reader) (*molecule.Molecule, error) {
	sc := bufio.NewScanner(r)
	return readMolBlock(sc, FormatSDF)
}

// WriteMol encodes m as a V2000 molfile.
func WriteMol(w io.Writer, m *molecule.Molecule) error {
	bw := bufio.NewWriter(w)
	writeMolBlock(bw, m)
	return bw.Flush()
}

// WriteSDF encodes m as a single-record structure-data file.
func WriteSDF(w io.Writer, m *molecule.Molecule) error {
	bw := bufio.NewWriter(w)
	writeMolBlock(bw, m)
	fmt.Fprintln(bw, "$$$$")
	return bw.Flush()
}

// readMolBlock reads the header, counts line, atom and bond blocks and the
// property block up to "M  END".
func readMolBlock(sc *bufio.Scanner, f Format) (*molecule.Molecule, error) {
	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return sc.Text(), true
	}

	for range 3 {
		if _, ok := next(); !ok {
			return nil, formatError(f, line, "unexpected end of header")
		}
	}
	counts, ok := next()
	if !ok {
		return nil, formatError(f, line, "missing counts line")
	}
	if len(counts) < 6 {
		return nil, formatError(f, line, "counts line too short")
	}
	if len(counts) >= 39 && strings.Contains(counts[33:39], "V3000") {
		return nil, formatError(f, line, "V3000 molfiles are not supported")
	}
	numAtoms, err1 := strconv.Atoi(strings.TrimSpace(counts[0:3]))
	numBonds, err2 := strconv.Atoi(strings.TrimSpace(counts[3:6]))
	if err1 != nil || err2 != nil {
		return nil, formatError(f, line, "invalid counts line %q", counts)
	}
	if numAtoms < 0 || numBonds < 0 {
		return nil, formatError(f, line, "negative counts in %q", counts)
	}

	atoms := make([]molecule.Atom, numAtoms)
	positions := make([]r3.Vec, numAtoms)
	for i := range numAtoms {
		l, ok := next()
		if !ok {
			return nil, formatError(f, line, "expected %d atoms, got %d", numAtoms, i)
		}
		if len(l) < 34 {
			return nil, formatError(f, line, "atom line too short")
		}
		x, errX := parseFloat(l[0:10])
		y, errY := parseFloat(l[10:20])
		z, errZ := parseFloat(l[20:30])
		if errX != nil || errY != nil || errZ != nil {
			return nil, formatError(f, line, "invalid coordinates %q", l[0:30])
		}
		atoms[i] = molecule.Atom{ID: i, Element: molecule.ParseElement(l[31:34])}
		if len(l) >= 39 {
			if code, err := strconv.Atoi(strings.TrimSpace(l[36:39])); err == nil {
				atoms[i].Charge = chargeFromCode[code]
			}
		}
		positions[i] = r3.Vec{X: x, Y: y, Z: z}
	}

	bonds := make([]molecule.Bond, numBonds)
	for i := range numBonds {
		l, ok := next()
		if !ok {
			return nil, formatError(f, line, "expected %d bonds, got %d", numBonds, i)
		}
		if len(l) < 9 {
			return nil, formatError(f, line, "bond line too short")
		}
		a1, e1 := strconv.Atoi(strings.TrimSpace(l[0:3]))
		a2, e2 := strconv.Atoi(strings.TrimSpace(l[3:6]))
		order, e3 := strconv.Atoi(strings.TrimSpace(l[6:9]))
		if e1 != nil || e2 != nil || e3 != nil {
			return nil, formatError(f, line, "invalid bond line %q", l)
		}
		bonds[i] = molecule.Bond{Atom1: a1 - 1, Atom2: a2 - 1, Order: order}
	}

	for {
		l, ok := next()
		if !ok || strings.HasPrefix(l, "M  END") {
			break
		}
		if strings.HasPrefix(l, "M  CHG") {
			applyChargeProperty(atoms, l)
		}
	}

	m, err := molecule.New(atoms, bonds, positions)
	if err != nil {
		return nil, formatError(f, line, "%v", err)
	}
	return m, nil
}

// applyChargeProperty reads "M  CHGnn8 aaa vvv ..." pairs.
func applyChargeProperty(atoms []molecule.Atom, l string) {
	fields := strings.Fields(l[6:])
	if len(fields) == 0 {
		return
	}
	for i := 1; i+1 < len(fields); i += 2 {
		id, err1 := strconv.Atoi(fields[i])
		charge, err2 := strconv.Atoi(fields[i+1])
		if err1 != nil || err2 != nil || id < 1 || id > len(atoms) {
			continue
		}
		atoms[id-1].Charge = charge
	}
}

func writeMolBlock(w io.Writer, m *molecule.Molecule) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  molforge          3D")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", m.NumAtoms(), m.NumBonds())
	for _, a := range m.Atoms() {
		p := m.Position(a.ID)
		fmt.Fprintf(w, "%10.4f%10.4f%10.4f %-3s 0%3d  0  0  0  0  0  0  0  0  0  0\n",
			p.X, p.Y, p.Z, a.Element, codeFromCharge[a.Charge])
	}
	for _, b := range m.Bonds() {
		fmt.Fprintf(w, "%3d%3d%3d  0\n", b.Atom1+1, b.Atom2+1, b.Order)
	}
	var charged []molecule.Atom
	for _, a := range m.Atoms() {
		if a.Charge != 0 {
			charged = append(charged, a)
		}
	}
	for start := 0; start < len(charged); start += 8 {
		chunk := charged[start:min(start+8, len(charged))]
		fmt.Fprintf(w, "M  CHG%3d", len(chunk))
		for _, a := range chunk {
			fmt.Fprintf(w, " %3d %3d", a.ID+1, a.Charge)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "M  END")
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
