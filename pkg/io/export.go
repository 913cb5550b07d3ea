package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/molforge/pkg/molecule"
)

// WriteJSON encodes m in its [molecule.Dict] form. The output can be read
// back with [ReadJSON].
func WriteJSON(w io.Writer, m *molecule.Molecule) error {
	return encodeDict(w, m.ToDict())
}

// WriteBuildingBlockJSON encodes bb including its functional groups.
func WriteBuildingBlockJSON(w io.Writer, bb *molecule.BuildingBlock) error {
	return encodeDict(w, bb.ToDict())
}

// Export writes m to path in format f. An empty f is resolved from the
// file extension.
func Export(m *molecule.Molecule, path string, f Format) error {
	f, err := Resolve(path, f)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(file, m, f); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func encodeDict(w io.Writer, d molecule.Dict) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
