// Package store persists construction records so that a server can hand
// out a construction by id after the request that built it has finished.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/topology"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("record not found")

// Record is one finished construction.
type Record struct {
	ID          string                          `json:"id" bson:"_id"`
	Name        string                          `json:"name,omitempty" bson:"name,omitempty"`
	Topology    string                          `json:"topology" bson:"topology"`
	BlockKeys   []string                        `json:"block_keys" bson:"block_keys"`
	Seed        uint64                          `json:"seed" bson:"seed"`
	CacheKey    string                          `json:"cache_key,omitempty" bson:"cache_key,omitempty"`
	Molecule    molecule.Dict                   `json:"molecule" bson:"molecule"`
	Blocks      []topology.PlacedBlock          `json:"blocks,omitempty" bson:"blocks,omitempty"`
	Warnings    []topology.StoichiometryWarning `json:"warnings,omitempty" bson:"warnings,omitempty"`
	NumNewBonds int                             `json:"num_new_bonds" bson:"num_new_bonds"`
	CreatedAt   time.Time                       `json:"created_at" bson:"created_at"`
}

// NewID returns a fresh record id.
func NewID() string { return uuid.NewString() }

// Store saves and retrieves records.
type Store interface {
	// Save inserts or replaces r. An empty ID is filled in.
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns up to limit records, newest first. A limit of zero or
	// less returns every record.
	List(ctx context.Context, limit int) ([]*Record, error)
	Close() error
}

func prepare(r *Record) {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Save(_ context.Context, r *Record) error {
	prepare(r)
	cp := *r
	s.mu.Lock()
	s.records[r.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		cp := *r
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
