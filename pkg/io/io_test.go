package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/molecule"
)

// testMolecule returns H2C=N(+)Br, with a charged nitrogen to cover the
// charge columns.
func testMolecule(t *testing.T) *molecule.Molecule {
	t.Helper()
	m, err := molecule.New(
		[]molecule.Atom{{Element: "C"}, {Element: "N", Charge: 1}, {Element: "H"}, {Element: "H"}, {Element: "Br"}},
		[]molecule.Bond{
			{Atom1: 0, Atom2: 1, Order: 2},
			{Atom1: 0, Atom2: 2, Order: 1},
			{Atom1: 0, Atom2: 3, Order: 1},
			{Atom1: 1, Atom2: 4, Order: 1},
		},
		[]r3.Vec{{X: 0.1}, {X: 1.3, Y: 0.2}, {X: -0.5, Y: 0.9}, {X: -0.5, Y: -0.9}, {X: 2.9, Y: 0.3, Z: -0.4}},
	)
	require.NoError(t, err)
	return m
}

func TestResolve(t *testing.T) {
	tests := []struct {
		path     string
		explicit Format
		want     Format
		wantErr  bool
	}{
		{"cage.mol", "", FormatMol, false},
		{"cage.SDF", "", FormatSDF, false},
		{"dir/cof.pdb", "", FormatPDB, false},
		{"a.xyz", "", FormatXYZ, false},
		{"a.json", "", FormatJSON, false},
		{"a.txt", "", "", true},
		{"a.txt", "XYZ", FormatXYZ, false},
		{"a.mol", "cif", "", true},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.path, tt.explicit)
		if (err != nil) != tt.wantErr {
			t.Errorf("Resolve(%q, %q) error = %v, wantErr %v", tt.path, tt.explicit, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.path, tt.explicit, got, tt.want)
		}
	}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []Format{FormatJSON, FormatMol, FormatPDB, FormatSDF, FormatXYZ}, Formats())
}

func TestMolKeepsBondOrdersAndCharges(t *testing.T) {
	m := testMolecule(t)
	var buf bytes.Buffer
	require.NoError(t, WriteMol(&buf, m))
	assert.Contains(t, buf.String(), "V2000")
	assert.Contains(t, buf.String(), "M  CHG  1   2   1")

	got, err := ReadMol(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Atoms(), got.Atoms())
	assert.Equal(t, m.Bonds(), got.Bonds())
	for i := range m.NumAtoms() {
		assert.InDelta(t, 0, r3.Norm(r3.Sub(m.Position(i), got.Position(i))), 1e-3)
	}
	assert.Equal(t, m.IdentityKey(), got.IdentityKey())
}

func TestSDFReadsFirstRecord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSDF(&buf, testMolecule(t)))
	require.NoError(t, WriteSDF(&buf, testMolecule(t)))
	assert.Equal(t, 2, strings.Count(buf.String(), "$$$$"))

	got, err := ReadSDF(&buf)
	require.NoError(t, err)
	assert.Equal(t, 5, got.NumAtoms())
}

func TestReadMolErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short counts", "\n\n\n 1\n"},
		{"missing atoms", "\n\n\n  2  0  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 C   0  0\n"},
		{"v3000", "\n\n\n  0  0  0     0  0            999 V3000\n"},
		{"negative atoms", "\n\n\n -1  0  0  0  0  0  0  0  0  0999 V2000\nM  END\n"},
		{"negative bonds", "\n\n\n  0 -1  0  0  0  0  0  0  0  0999 V2000\nM  END\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMol(strings.NewReader(tt.input))
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
		})
	}
}

func TestXYZDropsBonds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXYZ(&buf, testMolecule(t)))

	got, err := ReadXYZ(&buf)
	require.NoError(t, err)
	assert.Equal(t, 5, got.NumAtoms())
	assert.Zero(t, got.NumBonds())
	assert.Equal(t, molecule.Element("Br"), got.Atom(4).Element)
}

func TestPDBBondOrders(t *testing.T) {
	m := testMolecule(t)
	var buf bytes.Buffer
	require.NoError(t, WritePDB(&buf, m))
	assert.Equal(t, 5, strings.Count(buf.String(), "CONECT"))

	got, err := ReadPDB(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Bonds(), got.Bonds())
	assert.Equal(t, m.Atoms(), got.Atoms())
}

func TestPDBSymmetricConect(t *testing.T) {
	input := strings.Join([]string{
		"HETATM    1  C1  UNL A   1       0.000   0.000   0.000  1.00  0.00           C",
		"HETATM    2  O2  UNL A   1       1.200   0.000   0.000  1.00  0.00           O",
		"CONECT    1    2    2",
		"CONECT    2    1    1",
		"END",
	}, "\n")
	got, err := ReadPDB(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, got.NumBonds())
	assert.Equal(t, 2, got.Bonds()[0].Order)
}

func TestJSONKeepsPeriodicity(t *testing.T) {
	m, err := molecule.New(
		[]molecule.Atom{{Element: "C"}, {Element: "C"}},
		[]molecule.Bond{{Atom1: 0, Atom2: 1, Order: 1, Periodicity: [3]int{1, 0, -1}}},
		[]r3.Vec{{}, {X: 1.5}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, m))
	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, [3]int{1, 0, -1}, got.Bonds()[0].Periodicity)
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	m := testMolecule(t)
	for _, f := range Formats() {
		path := filepath.Join(dir, "out."+string(f))
		require.NoError(t, Export(m, path, ""))
		got, err := Import(path, "")
		require.NoError(t, err, "format %s", f)
		assert.Equal(t, m.NumAtoms(), got.NumAtoms(), "format %s", f)
	}

	_, err := Import(filepath.Join(dir, "missing.mol"), "")
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}

func TestImportBuildingBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bromo.mol")
	require.NoError(t, Export(testMolecule(t), path, ""))

	bb, err := ImportBuildingBlock(path, "", molecule.KindBromo)
	require.NoError(t, err)
	require.Equal(t, 1, bb.NumFunctionalGroups())
	assert.Equal(t, []int{1}, bb.BonderIDs())

	jsonPath := filepath.Join(dir, "bromo.json")
	f, err := os.Create(jsonPath)
	require.NoError(t, err)
	require.NoError(t, WriteBuildingBlockJSON(f, bb))
	require.NoError(t, f.Close())

	back, err := ImportBuildingBlock(jsonPath, "")
	require.NoError(t, err)
	assert.Equal(t, bb.FunctionalGroups(), back.FunctionalGroups())
}
