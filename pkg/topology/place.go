package topology

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/geometry"
	"github.com/matzehuels/molforge/pkg/molecule"
)

// Placement holds the coordinates of a building block after it has been
// placed on a site. Atom ids are those of the building block.
type Placement struct {
	Site      SiteRef
	Positions []r3.Vec
	Bonders   []int
}

// PlaceOptions tunes the placement of one building block.
type PlaceOptions struct {
	// Aligner is the index of the neighbour the aligner functional group is
	// turned toward.
	Aligner int
	// AlignerGroup is the index of the functional group turned toward the
	// aligner neighbour.
	AlignerGroup int
	// Alignment is +1 or -1 and flips the orientation of a block placed on a
	// two-vertex edge. Zero means +1.
	Alignment int
	// Reference is the point the bulk of linear blocks turns away from,
	// usually the graph centroid.
	Reference r3.Vec
	// Paired holds, per neighbour index, the centroid of the neighbour's
	// bonder atoms paired with this site, expressed in this site's frame.
	Paired map[int]r3.Vec
}

// Place places bb on site. Vertices with three or more connections and edges
// joining three or more vertices use the polyhedral algorithm, the rest the
// linear one.
func Place(bb *molecule.BuildingBlock, site Site, neighbors []Neighbor, opts PlaceOptions) (Placement, error) {
	ref := refOf(site)
	switch {
	case len(neighbors) == 0:
		return Placement{}, siteError(ref, "%s %d has no connections", ref.Kind, ref.ID)
	case site.Kind() == SiteEdge && len(neighbors) < 2:
		return Placement{}, siteError(ref, "edge %d has %d connected vertices, need at least 2", ref.ID, len(neighbors))
	case len(neighbors) >= 3:
		return PlacePolyhedral(bb, site, neighbors, opts)
	}
	return placeLinear(bb, site, neighbors, opts), nil
}

// PlacePolyhedral places bb on a site with three or more connections.
//
// The bonder plane normal of the block is rotated onto the edge plane
// normal, the bonder centroid is moved to the site and the block is turned
// about the normal until its aligner functional group points toward the
// aligner neighbour.
func PlacePolyhedral(bb *molecule.BuildingBlock, site Site, neighbors []Neighbor, opts PlaceOptions) (Placement, error) {
	ref := refOf(site)
	if len(neighbors) < 3 {
		return Placement{}, siteError(ref, "%s %d has %d connections, a plane needs 3", ref.Kind, ref.ID, len(neighbors))
	}
	if bb.NumFunctionalGroups() < 3 {
		return Placement{}, siteError(ref, "building block with %d functional groups cannot fill %s %d with %d connections",
			bb.NumFunctionalGroups(), ref.Kind, ref.ID, len(neighbors))
	}

	positions := neighborPositions(neighbors)
	edgeCentroid := geometry.MustCentroid(positions...)
	normal, err := EdgePlaneNormal(positions, site.Position())
	if err != nil {
		return Placement{}, siteError(ref, "%s %d: %v", ref.Kind, ref.ID, err)
	}

	target := site.Position()
	if !site.IsCustomPosition() {
		target = edgeCentroid
		if len(opts.Paired) > 0 {
			target = pairedCentroid(opts.Paired)
		}
	}

	work := bb.Clone()
	blockNormal, err := work.BonderPlaneNormal()
	if err != nil {
		return Placement{}, siteError(ref, "%s %d: %v", ref.Kind, ref.ID, err)
	}
	work.ApplyRotationBetweenVectors(blockNormal, normal, work.BonderCentroid())
	work.SetCentroid(target, work.BonderIDs()...)

	aligner := neighbors[alignerIndex(opts.Aligner, len(neighbors))]
	fg := work.FunctionalGroup(alignerIndex(opts.AlignerGroup, work.NumFunctionalGroups()))
	start := r3.Sub(work.Centroid(fg.Bonders()...), target)
	work.ApplyRotationToMinimizeAngle(start, r3.Sub(aligner.Position, edgeCentroid), normal, target)

	return Placement{Site: ref, Positions: work.Positions(), Bonders: work.BonderIDs()}, nil
}

// EdgePlaneNormal returns the unit normal of the plane through the positions
// of the sites connected to a vertex. It is oriented away from the origin,
// using the centroid of the positions as reference, or fallback when that
// centroid is at the origin.
func EdgePlaneNormal(positions []r3.Vec, fallback r3.Vec) (r3.Vec, error) {
	if len(positions) < 3 {
		return r3.Vec{}, geometry.ErrInsufficientPoints
	}
	normal := r3.Cross(r3.Sub(positions[0], positions[1]), r3.Sub(positions[0], positions[2]))
	if geometry.IsZero(normal) {
		var err error
		if normal, err = geometry.PlaneNormal(positions); err != nil {
			return r3.Vec{}, err
		}
	}
	normal = geometry.Normalize(normal)

	reference := geometry.MustCentroid(positions...)
	if geometry.IsZero(reference) {
		reference = fallback
	}
	return geometry.Outward(normal, reference), nil
}

// placeLinear places bb on a site with one or two connections. The vector
// from the aligner functional group to the next one is laid along the site
// direction, so the aligner group faces the aligner neighbour. The block is
// then turned about that direction so its bulk faces away from the reference
// point, and the bonder centroid is moved to the site.
//
// A site without a custom position is centred on the atoms paired with it,
// or on its neighbours when it has two of them.
func placeLinear(bb *molecule.BuildingBlock, site Site, neighbors []Neighbor, opts PlaceOptions) Placement {
	ref := refOf(site)
	work := bb.Clone()

	target := site.Position()
	if !site.IsCustomPosition() {
		switch {
		case len(opts.Paired) > 0:
			target = pairedCentroid(opts.Paired)
		case len(neighbors) > 1:
			target = geometry.MustCentroid(neighborPositions(neighbors)...)
		}
	}
	if work.NumFunctionalGroups() == 0 {
		work.SetCentroid(target)
		return Placement{Site: ref, Positions: work.Positions()}
	}

	a := alignerIndex(opts.Aligner, len(neighbors))
	var start, dir r3.Vec
	switch {
	case work.NumFunctionalGroups() == 1:
		start = r3.Sub(work.BonderCentroid(), work.Centroid())
		dir = r3.Sub(neighbors[a].Position, target)
	case len(neighbors) == 1:
		start = groupDirection(work, opts.AlignerGroup)
		dir = r3.Sub(target, neighbors[0].Position)
	default:
		start = groupDirection(work, opts.AlignerGroup)
		from, to := neighbors[a].Position, neighbors[1-a].Position
		if p, ok := opts.Paired[a]; ok {
			if q, ok := opts.Paired[1-a]; ok {
				from, to = p, q
			}
		}
		dir = r3.Sub(to, from)
	}
	if site.Kind() == SiteEdge && opts.Alignment < 0 {
		dir = r3.Scale(-1, dir)
	}
	dir = geometry.Normalize(dir)

	origin := work.BonderCentroid()
	work.ApplyRotationBetweenVectors(start, dir, origin)
	bulk := r3.Sub(work.Centroid(), origin)
	work.ApplyRotationToMinimizeAngle(bulk, r3.Sub(target, opts.Reference), dir, origin)
	work.SetCentroid(target, work.BonderIDs()...)

	return Placement{Site: ref, Positions: work.Positions(), Bonders: work.BonderIDs()}
}

// groupDirection returns the unit vector from the bonder centroid of the
// aligner group to that of the group after it.
func groupDirection(bb *molecule.BuildingBlock, aligner int) r3.Vec {
	c := bb.BonderCentroids()
	g := alignerIndex(aligner, len(c))
	return geometry.Normalize(r3.Sub(c[(g+1)%len(c)], c[g]))
}

func neighborPositions(neighbors []Neighbor) []r3.Vec {
	out := make([]r3.Vec, len(neighbors))
	for i, n := range neighbors {
		out[i] = n.Position
	}
	return out
}

func pairedCentroid(paired map[int]r3.Vec) r3.Vec {
	points := make([]r3.Vec, 0, len(paired))
	for _, k := range slices.Sorted(maps.Keys(paired)) {
		points = append(points, paired[k])
	}
	return geometry.MustCentroid(points...)
}

func alignerIndex(aligner, n int) int {
	return ((aligner % n) + n) % n
}
