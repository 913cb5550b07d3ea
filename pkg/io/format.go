package io

import (
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/molecule"
)

// Format identifies a molecule file format.
type Format string

// Supported formats.
const (
	FormatMol  Format = "mol"
	FormatSDF  Format = "sdf"
	FormatXYZ  Format = "xyz"
	FormatPDB  Format = "pdb"
	FormatJSON Format = "json"
)

// ReadFunc decodes one molecule from r.
type ReadFunc func(r io.Reader) (*molecule.Molecule, error)

// WriteFunc encodes m to w.
type WriteFunc func(w io.Writer, m *molecule.Molecule) error

type codec struct {
	read  ReadFunc
	write WriteFunc
}

var registry = map[Format]codec{
	FormatMol:  {ReadMol, WriteMol},
	FormatSDF:  {ReadSDF, WriteSDF},
	FormatXYZ:  {ReadXYZ, WriteXYZ},
	FormatPDB:  {ReadPDB, WritePDB},
	FormatJSON: {ReadJSON, WriteJSON},
}

var extensions = map[string]Format{
	".mol":  FormatMol,
	".mdl":  FormatMol,
	".sdf":  FormatSDF,
	".sd":   FormatSDF,
	".xyz":  FormatXYZ,
	".pdb":  FormatPDB,
	".json": FormatJSON,
}

// Formats returns the registered formats in sorted order.
func Formats() []Format {
	out := make([]Format, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Resolve returns explicit when it is non-empty and registered, otherwise the
// format matching the extension of path.
func Resolve(path string, explicit Format) (Format, error) {
	if explicit != "" {
		f := Format(strings.ToLower(string(explicit)))
		if _, ok := registry[f]; !ok {
			return "", errors.New(errors.ErrCodeUnsupported, "unsupported format %q", explicit).
				WithDetail("format", string(explicit))
		}
		return f, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensions[ext]
	if !ok {
		return "", errors.New(errors.ErrCodeUnsupported, "cannot infer format from %q", path).
			WithDetail("path", path)
	}
	return f, nil
}

// Read decodes a molecule in format f.
func Read(r io.Reader, f Format) (*molecule.Molecule, error) {
	c, ok := registry[f]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
	}
	return c.read(r)
}

// Write encodes m in format f.
func Write(w io.Writer, m *molecule.Molecule, f Format) error {
	c, ok := registry[f]
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
	}
	return c.write(w, m)
}

func formatError(f Format, line int, format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidFormat, format, args...).
		WithDetail("format", string(f)).
		WithDetail("line", line)
}
