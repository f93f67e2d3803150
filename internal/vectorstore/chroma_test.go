package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChroma is a minimal in-memory stand-in for the Chroma HTTP API.
type fakeChroma struct {
	collections map[string]bool
	addCalls    []map[string]any
	deleted     [][]string
	queryResp   map[string]any
	getResp     map[string]any
}

func newFakeChroma() *fakeChroma {
	return &fakeChroma{collections: map[string]bool{}}
}

func (f *fakeChroma) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int64{"nanosecond heartbeat": time.Now().UnixNano()})
	})
	mux.HandleFunc("GET /api/v1/collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		if !f.collections[r.PathValue("name")] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"name": r.PathValue("name")})
	})
	mux.HandleFunc("POST /api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.collections[body["name"].(string)] = true
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /api/v1/collections/{name}/add", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.addCalls = append(f.addCalls, body)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /api/v1/collections/{name}/query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.queryResp)
	})
	mux.HandleFunc("POST /api/v1/collections/{name}/delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IDs []string `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.deleted = append(f.deleted, body.IDs)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/v1/collections/{name}/get", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.getResp)
	})
	return mux
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	fake := newFakeChroma()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewChromaStore(srv.URL, "documents", 0)

	require.NoError(t, store.EnsureCollection(context.Background()))
	assert.True(t, fake.collections["documents"])

	// Second call finds the existing collection.
	require.NoError(t, store.EnsureCollection(context.Background()))
}

func TestAddValidatesInputs(t *testing.T) {
	store := NewChromaStore("http://unused", "documents", 0)

	err := store.Add(context.Background(), []string{"a", "b"}, []ChunkMetadata{{}}, []string{"1", "2"})
	assert.ErrorContains(t, err, "mismatched lengths")

	err = store.Add(context.Background(),
		[]string{"a", "b"},
		[]ChunkMetadata{{}, {}},
		[]string{"dup", "dup"})
	assert.ErrorContains(t, err, "duplicate id")
}

func TestAddSendsDocuments(t *testing.T) {
	fake := newFakeChroma()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewChromaStore(srv.URL, "documents", 0)

	err := store.Add(context.Background(),
		[]string{"first chunk", "second chunk"},
		[]ChunkMetadata{
			{Filename: "a.pdf", Page: 1, Chunk: 1},
			{Filename: "a.pdf", Page: 1, Chunk: 2},
		},
		[]string{"id-1", "id-2"})
	require.NoError(t, err)

	require.Len(t, fake.addCalls, 1)
	docs := fake.addCalls[0]["documents"].([]any)
	assert.Equal(t, "first chunk", docs[0])
	assert.Equal(t, "second chunk", docs[1])
}

func TestQueryParsesRankedResults(t *testing.T) {
	fake := newFakeChroma()
	fake.collections["documents"] = true
	fake.queryResp = map[string]any{
		"ids":       [][]string{{"id-1", "id-2"}},
		"documents": [][]string{{"Paris is the capital.", "Unrelated text."}},
		"metadatas": [][]map[string]any{{
			{"filename": "france.txt", "page": 1, "chunk": 1},
			{"filename": "other.txt", "page": 2, "chunk": 3},
		}},
		"distances": [][]float64{{0.2, 1.4}},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewChromaStore(srv.URL, "documents", 0)

	results, err := store.Query(context.Background(), "capital of France", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "id-1", results[0].ID)
	assert.Equal(t, "france.txt", results[0].Metadata.Filename)
	assert.Equal(t, 1, results[0].Metadata.Page)
	assert.InDelta(t, 0.2, results[0].Distance, 1e-9)
	assert.InDelta(t, 1.4, results[1].Distance, 1e-9)
}

func TestDeleteAndGetByMetadata(t *testing.T) {
	fake := newFakeChroma()
	fake.collections["documents"] = true
	fake.getResp = map[string]any{
		"ids":       []string{"id-1", "id-2"},
		"documents": []string{"chunk one", "chunk two"},
		"metadatas": []map[string]any{
			{"filename": "a.pdf", "page": 1, "chunk": 1},
			{"filename": "a.pdf", "page": 2, "chunk": 1},
		},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewChromaStore(srv.URL, "documents", 0)

	got, err := store.GetByMetadata(context.Background(), map[string]any{"filename": "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1", "id-2"}, got.IDs)
	assert.Equal(t, "a.pdf", got.Metadatas[0].Filename)

	require.NoError(t, store.Delete(context.Background(), got.IDs))
	require.Len(t, fake.deleted, 1)
	assert.Equal(t, []string{"id-1", "id-2"}, fake.deleted[0])
}

func TestDeleteNoIDsIsNoop(t *testing.T) {
	store := NewChromaStore("http://unreachable.invalid", "documents", time.Second)
	assert.NoError(t, store.Delete(context.Background(), nil))
}

func TestUnreachableBackendFailsCleanly(t *testing.T) {
	store := NewChromaStore("http://127.0.0.1:1", "documents", 500*time.Millisecond)

	assert.Error(t, store.EnsureCollection(context.Background()))

	_, err := store.Query(context.Background(), "anything", 3)
	assert.Error(t, err)

	err = store.Add(context.Background(), []string{"d"}, []ChunkMetadata{{}}, []string{"i"})
	assert.Error(t, err)
}
