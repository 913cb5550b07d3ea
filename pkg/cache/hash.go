package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key prefixes, one per kind of cached value.
const (
	PrefixConstruct = "construct"
	PrefixArtifact  = "artifact"
	PrefixRender    = "render"
)

// hashKey returns prefix:sha256(json(parts)). Map keys are sorted by
// encoding/json, so equal inputs give equal keys.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash computes a SHA-256 hash of the input data as 64 hex characters.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ConstructKeyOpts holds every input of a construction besides the
// topology and the blocks.
type ConstructKeyOpts struct {
	Size             [3]int            `json:"size"`
	Periodic         bool              `json:"periodic"`
	Policy           string            `json:"policy"`
	Seed             uint64            `json:"seed"`
	Scale            float64           `json:"scale"`
	VertexBlocks     map[int][]int     `json:"vertex_blocks,omitempty"`
	EdgeBlocks       map[int][]int     `json:"edge_blocks,omitempty"`
	VertexAlignments map[int]int       `json:"vertex_alignments,omitempty"`
	VertexAligners   map[int]int       `json:"vertex_aligners,omitempty"`
	EdgeAlignments   map[int]int       `json:"edge_alignments,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// ArtifactKeyOpts selects one export of a construction.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// RenderKeyOpts selects one rendering of a topology graph.
type RenderKeyOpts struct {
	Format   string `json:"format"`
	Size     [3]int `json:"size"`
	Periodic bool   `json:"periodic"`
	Detailed bool   `json:"detailed"`
}

// Keyer produces cache keys.
type Keyer interface {
	// ConstructKey identifies a construction. topology is a built-in name
	// or the hash of an inline definition; blocks are the building block
	// identity keys in recipe order.
	ConstructKey(topology string, blocks []string, opts ConstructKeyOpts) string
	// ArtifactKey identifies an exported file of a construction.
	ArtifactKey(constructKey string, opts ArtifactKeyOpts) string
	// RenderKey identifies a rendered topology diagram.
	RenderKey(topology string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ConstructKey(topology string, blocks []string, opts ConstructKeyOpts) string {
	return hashKey(PrefixConstruct, topology, blocks, opts)
}

func (DefaultKeyer) ArtifactKey(constructKey string, opts ArtifactKeyOpts) string {
	return hashKey(PrefixArtifact, constructKey, opts)
}

func (DefaultKeyer) RenderKey(topology string, opts RenderKeyOpts) string {
	return hashKey(PrefixRender, topology, opts)
}
