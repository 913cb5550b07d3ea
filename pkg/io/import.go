package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/molecule"
)

// ReadJSON decodes a molecule from its [molecule.Dict] JSON form.
// Functional groups in the input are ignored; use [ReadBuildingBlockJSON]
// to keep them.
func ReadJSON(r io.Reader) (*molecule.Molecule, error) {
	d, err := decodeDict(r)
	if err != nil {
		return nil, err
	}
	m, err := molecule.FromDict(d)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "json molecule")
	}
	return m, nil
}

// ReadBuildingBlockJSON decodes a building block with the functional groups
// stored in the input.
func ReadBuildingBlockJSON(r io.Reader) (*molecule.BuildingBlock, error) {
	d, err := decodeDict(r)
	if err != nil {
		return nil, err
	}
	return molecule.BuildingBlockFromDict(d)
}

// Import reads the file at path in format f. An empty f is resolved from the
// file extension.
func Import(path string, f Format) (*molecule.Molecule, error) {
	f, err := Resolve(path, f)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fileError(path, err)
	}
	defer file.Close()

	m, err := Read(file, f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidFormat), err, "read %s", path)
	}
	return m, nil
}

// ImportBuildingBlock reads a building block from path. Functional groups
// stored in a json file are kept; otherwise groups of the given kinds, or of
// every kind, are detected.
func ImportBuildingBlock(path string, f Format, kinds ...molecule.Kind) (*molecule.BuildingBlock, error) {
	f, err := Resolve(path, f)
	if err != nil {
		return nil, err
	}
	if f == FormatJSON {
		file, err := os.Open(path)
		if err != nil {
			return nil, fileError(path, err)
		}
		defer file.Close()
		bb, err := ReadBuildingBlockJSON(file)
		if err != nil {
			return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidFormat), err, "read %s", path)
		}
		if bb.NumFunctionalGroups() > 0 {
			return bb, nil
		}
		return bb.WithFunctionalGroups(kinds...), nil
	}

	m, err := Import(path, f)
	if err != nil {
		return nil, err
	}
	bb, err := molecule.NewBuildingBlock(m)
	if err != nil {
		return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidInput), err, "building block %s", path)
	}
	return bb.WithFunctionalGroups(kinds...), nil
}

func decodeDict(r io.Reader) (molecule.Dict, error) {
	var d molecule.Dict
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return d, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	return d, nil
}

func fileError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path).WithDetail("path", path)
	}
	return errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path).WithDetail("path", path)
}
