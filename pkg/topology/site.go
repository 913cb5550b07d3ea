package topology

import (
	"fmt"
	"maps"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// SiteKind distinguishes vertices from edges.
type SiteKind int

const (
	// SiteVertex is a graph vertex.
	SiteVertex SiteKind = iota
	// SiteEdge is a graph edge.
	SiteEdge
)

func (k SiteKind) String() string {
	if k == SiteEdge {
		return "edge"
	}
	return "vertex"
}

func (k SiteKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *SiteKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "vertex":
		*k = SiteVertex
	case "edge":
		*k = SiteEdge
	default:
		return fmt.Errorf("unknown site kind %q", text)
	}
	return nil
}

// Site is a position of the graph that can hold a building block.
// Both [*Vertex] and [*Edge] implement it.
type Site interface {
	ID() int
	Kind() SiteKind
	Position() r3.Vec
	Cell() [3]int
	IsCustomPosition() bool
	ApplyScale(factor float64)
}

// SiteRef identifies a site independently of the graph instance.
type SiteRef struct {
	Kind SiteKind `json:"kind"`
	ID   int      `json:"id"`
}

func refOf(s Site) SiteRef { return SiteRef{Kind: s.Kind(), ID: s.ID()} }

// Metadata holds caller annotations of a vertex or edge. Keys starting with
// an underscore are internal and are not copied by Clone.
type Metadata map[string]any

// public returns a copy without internal keys. It returns nil for an empty
// result.
func (m Metadata) public() Metadata {
	out := maps.Clone(m)
	maps.DeleteFunc(out, func(k string, _ any) bool { return strings.HasPrefix(k, "_") })
	if len(out) == 0 {
		return nil
	}
	return out
}
