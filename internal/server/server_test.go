package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/cache"
	molio "github.com/matzehuels/molforge/pkg/io"
	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/observability"
	"github.com/matzehuels/molforge/pkg/pipeline"
	"github.com/matzehuels/molforge/pkg/store"
)

// armMol returns a mol file of a carbon core with n planar C-Br arms.
func armMol(t *testing.T, n int) string {
	t.Helper()
	atoms := []molecule.Atom{{Element: "C"}}
	positions := []r3.Vec{{Z: 1}}
	var bonds []molecule.Bond
	for i := range n {
		theta := 2 * math.Pi * float64(i) / float64(n)
		c := len(atoms)
		atoms = append(atoms, molecule.Atom{Element: "C"}, molecule.Atom{Element: "Br"})
		positions = append(positions,
			r3.Vec{X: math.Cos(theta), Y: math.Sin(theta)},
			r3.Vec{X: 2 * math.Cos(theta), Y: 2 * math.Sin(theta)},
		)
		bonds = append(bonds,
			molecule.Bond{Atom1: 0, Atom2: c, Order: 1},
			molecule.Bond{Atom1: c, Atom2: c + 1, Order: 1},
		)
	}
	m, err := molecule.New(atoms, bonds, positions)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, molio.WriteMol(&buf, m))
	return buf.String()
}

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	st := store.NewMemoryStore()
	runner := pipeline.NewRunner(c, nil, nil)
	return New(runner, st, nil, Options{Gatherer: prometheus.NewRegistry()}), st
}

func cageRequest(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"name":     "test-cage",
		"topology": "two_plus_three",
		"blocks": []map[string]any{
			{"name": "tri.mol", "data": armMol(t, 3), "groups": []string{"bromo"}},
			{"name": "di.mol", "data": armMol(t, 2), "groups": []string{"bromo"}},
		},
	})
	require.NoError(t, err)
	return body
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListTopologies(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/topologies", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []topologySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	byName := map[string]topologySummary{}
	for _, s := range out {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "four_plus_six")
	assert.Equal(t, 4, byName["four_plus_six"].Vertices)
	assert.Equal(t, 6, byName["four_plus_six"].Edges)
	assert.False(t, byName["four_plus_six"].Periodic)
	assert.True(t, byName["honeycomb"].Periodic)
	assert.True(t, byName["four_plus_four"].Linkerless)
}

func TestGetTopology(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/v1/topologies/FourPlusSix", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"definition"`)
	assert.Contains(t, rec.Body.String(), `"name":"four_plus_six"`)

	rec = do(t, s, http.MethodGet, "/v1/topologies/dodecahedron", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UNKNOWN_TOPOLOGY", string(decodeError(t, rec).Error.Code))
}

func TestTopologyDiagram(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/v1/topologies/square/diagram?format=dot&lattice=2x2x1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/vnd.graphviz", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "graph G {"))

	rec = do(t, s, http.MethodGet, "/v1/topologies/square/diagram?format=dot&lattice=2x2x1", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = do(t, s, http.MethodGet, "/v1/topologies/square/diagram?format=mol", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/v1/topologies/square/diagram?format=dot&lattice=axb", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndFetchConstruction(t *testing.T) {
	s, st := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/constructions", cageRequest(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created constructionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/v1/constructions/"+created.ID, rec.Header().Get("Location"))
	assert.Equal(t, "test-cage", created.Name)
	assert.Equal(t, "two_plus_three", created.Topology)
	assert.Equal(t, pipeline.DefaultSeed, created.Seed)
	assert.Equal(t, 17, created.Stats.Atoms)
	assert.Equal(t, 6, created.NumNewBonds)
	assert.False(t, created.Cached)

	stored, err := st.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Molecule.Atoms, 17)

	rec = do(t, s, http.MethodGet, "/v1/constructions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Blocks, 5)

	rec = do(t, s, http.MethodGet, "/v1/constructions/"+created.ID+"/xyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chemical/x-xyz", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "17\n"))

	rec = do(t, s, http.MethodGet, "/v1/constructions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []recordSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 17, list[0].Atoms)

	// the same request is served from the construction cache
	rec = do(t, s, http.MethodPost, "/v1/constructions", cageRequest(t))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestCreateConstructionErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"topology":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", `{"topology":"square","colour":"red"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"no blocks", `{"topology":"four_plus_six"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"path block", `{"topology":"four_plus_six","blocks":[{"path":"/etc/passwd"}]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad file name", `{"topology":"square","blocks":[{"name":"../a.mol","data":"x"}]}`, http.StatusBadRequest, "INVALID_PATH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/constructions", []byte(tt.body))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, string(decodeError(t, rec).Error.Code))
		})
	}

	body := bytes.Replace(cageRequest(t), []byte(`"two_plus_three"`), []byte(`"dodecahedron"`), 1)
	rec := do(t, s, http.MethodPost, "/v1/constructions", body)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "UNKNOWN_TOPOLOGY", string(decodeError(t, rec).Error.Code))
}

func TestGetConstructionErrors(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/v1/constructions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", string(decodeError(t, rec).Error.Code))

	rec = do(t, s, http.MethodGet, "/v1/constructions/missing/cif", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/v1/constructions?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type recordingHooks struct {
	routes []string
	codes  []int
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, code int, _ time.Duration) {
	h.routes = append(h.routes, method+" "+route)
	h.codes = append(h.codes, code)
}

func TestObserveReportsRoutePattern(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/v1/topologies/square", nil)
	do(t, s, http.MethodGet, "/v1/constructions/abc", nil)

	assert.Equal(t, []string{
		"GET /v1/topologies/{name}",
		"GET /v1/constructions/{id}",
	}, hooks.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, hooks.codes)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks, err := observability.NewPrometheusHooks(reg)
	require.NoError(t, err)
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := New(pipeline.NewRunner(nil, nil, nil), store.NewMemoryStore(), nil, Options{Gatherer: reg})
	do(t, s, http.MethodGet, "/healthz", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "molforge_http_requests_total")
}
