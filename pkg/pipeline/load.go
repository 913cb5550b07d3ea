package pipeline

import (
	"context"
	"strings"

	"github.com/matzehuels/molforge/pkg/errors"
	molio "github.com/matzehuels/molforge/pkg/io"
	"github.com/matzehuels/molforge/pkg/molecule"
)

// LoadBlocks reads every building block source in order.
func LoadBlocks(ctx context.Context, sources []BlockSource) ([]*molecule.BuildingBlock, error) {
	blocks := make([]*molecule.BuildingBlock, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bb, err := LoadBlock(src)
		if err != nil {
			return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidInput), err, "block %d", i)
		}
		blocks[i] = bb
	}
	return blocks, nil
}

// LoadBlock reads one building block. Groups restricts functional group
// detection; json inputs keep the groups they store.
func LoadBlock(src BlockSource) (*molecule.BuildingBlock, error) {
	kinds := make([]molecule.Kind, len(src.Groups))
	for i, g := range src.Groups {
		kinds[i] = molecule.Kind(g)
		if !kinds[i].Valid() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown functional group %q", g)
		}
	}

	if src.Path != "" {
		return molio.ImportBuildingBlock(src.Path, molio.Format(src.Format), kinds...)
	}

	f, err := molio.Resolve(src.Name, molio.Format(src.Format))
	if err != nil {
		return nil, err
	}
	if f == molio.FormatJSON {
		bb, err := molio.ReadBuildingBlockJSON(strings.NewReader(src.Data))
		if err != nil {
			return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidFormat), err, "read %s", src.Name)
		}
		if bb.NumFunctionalGroups() > 0 {
			return bb, nil
		}
		return bb.WithFunctionalGroups(kinds...), nil
	}

	m, err := molio.Read(strings.NewReader(src.Data), f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidFormat), err, "read %s", src.Name)
	}
	bb, err := molecule.NewBuildingBlock(m)
	if err != nil {
		return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidInput), err, "building block %s", src.Name)
	}
	return bb.WithFunctionalGroups(kinds...), nil
}

// BlockKeys returns the identity keys of blocks, in order.
func BlockKeys(blocks []*molecule.BuildingBlock) []string {
	keys := make([]string, len(blocks))
	for i, bb := range blocks {
		keys[i] = bb.IdentityKey()
	}
	return keys
}
