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

// ReadPDB decodes ATOM/HETATM and CONECT records. A pair listed n times in
// one direction becomes a bond of order n.
func ReadPDB(r io.Reader) (*molecule.Molecule, error) {
	sc := bufio.NewScanner(r)
	var (
		atoms     []molecule.Atom
		positions []r3.Vec
		serials   = make(map[int]int)
		conect    = make(map[[2]int]int)
		pairs     [][2]int
	)

	line := 0
	for sc.Scan() {
		line++
		l := sc.Text()
		switch {
		case strings.HasPrefix(l, "ATOM  ") || strings.HasPrefix(l, "HETATM"):
			if len(l) < 54 {
				return nil, formatError(FormatPDB, line, "atom record too short")
			}
			serial, err := strconv.Atoi(strings.TrimSpace(l[6:11]))
			if err != nil {
				return nil, formatError(FormatPDB, line, "invalid serial %q", l[6:11])
			}
			x, errX := parseFloat(l[30:38])
			y, errY := parseFloat(l[38:46])
			z, errZ := parseFloat(l[46:54])
			if errX != nil || errY != nil || errZ != nil {
				return nil, formatError(FormatPDB, line, "invalid coordinates")
			}
			id := len(atoms)
			serials[serial] = id
			atoms = append(atoms, molecule.Atom{ID: id, Element: pdbElement(l), Charge: pdbCharge(l)})
			positions = append(positions, r3.Vec{X: x, Y: y, Z: z})

		case strings.HasPrefix(l, "CONECT"):
			from, err := strconv.Atoi(strings.TrimSpace(field(l, 6, 11)))
			if err != nil {
				return nil, formatError(FormatPDB, line, "invalid CONECT record")
			}
			for start := 11; start+5 <= len(l); start += 5 {
				s := strings.TrimSpace(l[start : start+5])
				if s == "" {
					continue
				}
				to, err := strconv.Atoi(s)
				if err != nil {
					return nil, formatError(FormatPDB, line, "invalid CONECT serial %q", s)
				}
				key := [2]int{from, to}
				if conect[key] == 0 {
					pairs = append(pairs, key)
				}
				conect[key]++
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	var bonds []molecule.Bond
	seen := make(map[[2]int]bool)
	for _, p := range pairs {
		a, b := p[0], p[1]
		lo, hi := min(a, b), max(a, b)
		if seen[[2]int{lo, hi}] {
			continue
		}
		seen[[2]int{lo, hi}] = true
		id1, ok1 := serials[a]
		id2, ok2 := serials[b]
		if !ok1 || !ok2 {
			return nil, formatError(FormatPDB, line, "CONECT references unknown atom %d-%d", a, b)
		}
		order := max(conect[[2]int{a, b}], conect[[2]int{b, a}])
		bonds = append(bonds, molecule.Bond{Atom1: id1, Atom2: id2, Order: order})
	}

	m, err := molecule.New(atoms, bonds, positions)
	if err != nil {
		return nil, formatError(FormatPDB, line, "%v", err)
	}
	return m, nil
}

// WritePDB encodes m as HETATM records followed by one CONECT record per
// bond, repeated for multiple bonds.
func WritePDB(w io.Writer, m *molecule.Molecule) error {
	bw := bufio.NewWriter(w)
	for _, a := range m.Atoms() {
		p := m.Position(a.ID)
		name := fmt.Sprintf("%s%d", a.Element, a.ID+1)
		if len(name) > 4 {
			name = string(a.Element)
		}
		fmt.Fprintf(bw, "HETATM%5d %-4s UNL A   1    %8.3f%8.3f%8.3f  1.00  0.00          %2s%2s\n",
			a.ID+1, name, p.X, p.Y, p.Z, strings.ToUpper(string(a.Element)), pdbChargeField(a.Charge))
	}
	for _, b := range m.Bonds() {
		for range max(b.Order, 1) {
			fmt.Fprintf(bw, "CONECT%5d%5d\n", b.Atom1+1, b.Atom2+1)
		}
	}
	fmt.Fprintln(bw, "END")
	return bw.Flush()
}

func pdbElement(l string) molecule.Element {
	if el := strings.TrimSpace(field(l, 76, 78)); el != "" {
		return molecule.ParseElement(el)
	}
	name := strings.TrimSpace(field(l, 12, 16))
	name = strings.TrimRight(name, "0123456789")
	return molecule.ParseElement(name)
}

func pdbCharge(l string) int {
	s := strings.TrimSpace(field(l, 78, 80))
	if len(s) != 2 {
		return 0
	}
	n, err := strconv.Atoi(s[:1])
	if err != nil {
		return 0
	}
	if s[1] == '-' {
		return -n
	}
	return n
}

func pdbChargeField(charge int) string {
	switch {
	case charge > 0:
		return fmt.Sprintf("%d+", charge)
	case charge < 0:
		return fmt.Sprintf("%d-", -charge)
	}
	return ""
}

// field returns l[start:end] clipped to the line length.
func field(l string, start, end int) string {
	if start >= len(l) {
		return ""
	}
	return l[start:min(end, len(l))]
}
