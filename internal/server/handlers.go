package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/molforge/pkg/buildinfo"
	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/pipeline"
	"github.com/matzehuels/molforge/pkg/store"
	"github.com/matzehuels/molforge/pkg/topology"
)

// defaultListLimit caps GET /v1/constructions without ?limit.
const defaultListLimit = 50

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatMol:  "chemical/x-mdl-molfile",
	pipeline.FormatSDF:  "chemical/x-mdl-sdfile",
	pipeline.FormatXYZ:  "chemical/x-xyz",
	pipeline.FormatPDB:  "chemical/x-pdb",
}

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// =============================================================================
// Topologies
// =============================================================================

// topologySummary describes a built-in topology at its unit size.
type topologySummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Periodic    bool   `json:"periodic"`
	Linkerless  bool   `json:"linkerless"`
	Vertices    int    `json:"vertices"`
	Edges       int    `json:"edges"`
}

func summarize(def *topology.Definition) (topologySummary, error) {
	g, err := def.Build(pipeline.DefaultLattice, false)
	if err != nil {
		return topologySummary{}, err
	}
	return topologySummary{
		Name:        def.Name,
		Description: def.Description,
		Periodic:    def.IsPeriodic(),
		Linkerless:  def.Linkerless,
		Vertices:    g.NumVertices(),
		Edges:       g.NumEdges(),
	}, nil
}

func (s *Server) handleListTopologies(w http.ResponseWriter, r *http.Request) {
	names := topology.BuiltinNames()
	out := make([]topologySummary, 0, len(names))
	for _, name := range names {
		def, err := topology.Builtin(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		sum, err := summarize(def)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTopology(w http.ResponseWriter, r *http.Request) {
	def, err := topology.Builtin(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sum, err := summarize(def)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		topologySummary
		Definition *topology.Definition `json:"definition"`
	}{sum, def})
}

func (s *Server) handleTopologyDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.DiagramOptions{
		Format:   q.Get("format"),
		Periodic: q.Get("periodic") == "true",
		Detailed: q.Get("detailed") == "true",
	}
	if l := q.Get("lattice"); l != "" {
		size, err := parseLattice(l)
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.Lattice = size
	}
	if opts.Format == "" {
		opts.Format = pipeline.FormatSVG
	}

	data, cached, err := s.runner.RenderTopology(r.Context(), chi.URLParam(r, "name"), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("X-Cache", cacheStatus(cached))
	writeBytes(w, opts.Format, data)
}

// =============================================================================
// Constructions
// =============================================================================

// constructionRequest is the body of POST /v1/constructions.
type constructionRequest struct {
	Name string `json:"name,omitempty"`
	pipeline.Options
}

// constructionResponse is a stored record plus per-request details.
type constructionResponse struct {
	*store.Record
	Cached bool               `json:"cached"`
	Stats  constructionTiming `json:"stats"`
}

type constructionTiming struct {
	Atoms       int   `json:"atoms"`
	Bonds       int   `json:"bonds"`
	LoadMs      int64 `json:"load_ms"`
	ConstructMs int64 `json:"construct_ms"`
}

func (s *Server) handleCreateConstruction(w http.ResponseWriter, r *http.Request) {
	var req constructionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	for i, b := range req.Blocks {
		if b.Path != "" {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput,
				"block %d: paths are not accepted, send the file content in data", i).WithDetail("block", i))
			return
		}
	}

	opts := req.Options
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	if s.opts.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.BuildTimeout)
		defer cancel()
	}

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrap(errors.ErrCodeTimeout, err, "construction timed out")
		}
		s.writeError(w, err)
		return
	}

	rec := result.Record(req.Name, opts.Seed)
	if err := s.store.Save(ctx, rec); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeUnavailable, err, "save construction"))
		return
	}
	s.logger.Info("construction stored",
		"id", rec.ID,
		"topology", rec.Topology,
		"atoms", result.Stats.NumAtoms,
		"cached", result.CacheInfo.ConstructHit)

	w.Header().Set("Location", "/v1/constructions/"+rec.ID)
	w.Header().Set("X-Cache", cacheStatus(result.CacheInfo.ConstructHit))
	writeJSON(w, http.StatusCreated, constructionResponse{
		Record: rec,
		Cached: result.CacheInfo.ConstructHit,
		Stats: constructionTiming{
			Atoms:       result.Stats.NumAtoms,
			Bonds:       result.Stats.NumBonds,
			LoadMs:      result.Stats.LoadTime.Milliseconds(),
			ConstructMs: result.Stats.ConstructTime.Milliseconds(),
		},
	})
}

// recordSummary is a record without its molecule.
type recordSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Topology    string `json:"topology"`
	Atoms       int    `json:"atoms"`
	NumNewBonds int    `json:"num_new_bonds"`
	Warnings    int    `json:"warnings"`
	CreatedAt   string `json:"created_at"`
}

func (s *Server) handleListConstructions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeUnavailable, err, "list constructions"))
		return
	}
	out := make([]recordSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, recordSummary{
			ID:          rec.ID,
			Name:        rec.Name,
			Topology:    rec.Topology,
			Atoms:       len(rec.Molecule.Atoms),
			NumNewBonds: rec.NumNewBonds,
			Warnings:    len(rec.Warnings),
			CreatedAt:   rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetConstruction(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleExportConstruction(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	m, err := molecule.FromDict(rec.Molecule)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "decode stored molecule"))
		return
	}

	opts := pipeline.Options{Formats: []string{format}, Logger: s.logger}
	artifacts, cached, err := s.runner.ExportWithCacheInfo(r.Context(), m, rec.CacheKey, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("X-Cache", cacheStatus(cached))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", rec.ID+"."+format))
	writeBytes(w, format, artifacts[format])
}

func (s *Server) record(r *http.Request) (*store.Record, error) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "construction %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "get construction")
	}
	return rec, nil
}

// =============================================================================
// Helpers
// =============================================================================

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func parseLattice(s string) ([3]int, error) {
	size := [3]int{1, 1, 1}
	parts := strings.Split(s, "x")
	if len(parts) > 3 {
		return size, errors.New(errors.ErrCodeInvalidInput, "invalid lattice %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return size, errors.New(errors.ErrCodeInvalidInput, "invalid lattice %q", s)
		}
		size[i] = n
	}
	return size, nil
}
