// Package io reads and writes molecules in common chemistry file formats.
//
// # Formats
//
// Every format is registered under a [Format] id with a reader and a writer:
//
//   - mol: MDL molfile, V2000 connection table
//   - sdf: structure-data file; the first record is read, one record is written
//   - xyz: element symbol and Cartesian coordinates, no bonds
//   - pdb: HETATM records with CONECT bond records
//   - json: the [molecule.Dict] form, including periodic bonds and
//     functional groups
//
// [Resolve] picks the format once, from an explicit id or from the file
// extension, and every later call uses the resolved id:
//
//	f, err := io.Resolve("cage.mol", "")
//	m, err := io.Import("cage.mol", f)
//	err = io.Export(m, "cage.pdb", io.FormatPDB)
//
// # Building Blocks
//
// [ImportBuildingBlock] loads a molecule and attaches functional groups:
// groups stored in a JSON file are used as-is, otherwise they are detected
// for the requested kinds.
//
// # Limitations
//
// Only the json format keeps bond periodicity. The text formats write
// periodic bonds like any other bond.
package io
