package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChromaStore talks to a ChromaDB server over its HTTP API. The collection is
// created on first use and shared by all ingestions and queries.
type ChromaStore struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

func NewChromaStore(baseURL, collection string, timeout time.Duration) *ChromaStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromaStore{
		baseURL:    baseURL,
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *ChromaStore) EnsureCollection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/api/v1/collections/%s", s.baseURL, s.collection), nil)
	if err != nil {
		return fmt.Errorf("collection request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
	}

	return s.createCollection(ctx)
}

func (s *ChromaStore) createCollection(ctx context.Context) error {
	payload := map[string]any{
		"name":     s.collection,
		"metadata": map[string]string{"description": "Document embeddings for RAG"},
	}

	resp, err := s.post(ctx, "/api/v1/collections", payload)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create collection: status %d", resp.StatusCode)
	}
	return nil
}

func (s *ChromaStore) Add(ctx context.Context, documents []string, metadatas []ChunkMetadata, ids []string) error {
	if len(documents) != len(metadatas) || len(documents) != len(ids) {
		return fmt.Errorf("add: mismatched lengths: %d documents, %d metadatas, %d ids",
			len(documents), len(metadatas), len(ids))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("add: duplicate id %q", id)
		}
		seen[id] = true
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	payload := map[string]any{
		"documents": documents,
		"metadatas": metadatas,
		"ids":       ids,
	}

	resp, err := s.post(ctx, s.collectionPath("add"), payload)
	if err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("add documents: status %d", resp.StatusCode)
	}
	return nil
}

type chromaQueryResp struct {
	IDs       [][]string        `json:"ids"`
	Documents [][]string        `json:"documents"`
	Metadatas [][]ChunkMetadata `json:"metadatas"`
	Distances [][]float64       `json:"distances"`
}

func (s *ChromaStore) Query(ctx context.Context, text string, k int) ([]QueryResult, error) {
	if k <= 0 {
		k = 5
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"query_texts": []string{text},
		"n_results":   k,
	}

	resp, err := s.post(ctx, s.collectionPath("query"), payload)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// An empty or freshly created collection is not a failure.
		return nil, nil
	}

	var qr chromaQueryResp
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	if len(qr.Documents) == 0 {
		return nil, nil
	}

	results := make([]QueryResult, 0, len(qr.Documents[0]))
	for i, doc := range qr.Documents[0] {
		r := QueryResult{Document: doc}
		if len(qr.IDs) > 0 && i < len(qr.IDs[0]) {
			r.ID = qr.IDs[0][i]
		}
		if len(qr.Metadatas) > 0 && i < len(qr.Metadatas[0]) {
			r.Metadata = qr.Metadatas[0][i]
		}
		if len(qr.Distances) > 0 && i < len(qr.Distances[0]) {
			r.Distance = qr.Distances[0][i]
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *ChromaStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	resp, err := s.post(ctx, s.collectionPath("delete"), map[string]any{"ids": ids})
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("delete documents: status %d", resp.StatusCode)
	}
	return nil
}

type chromaGetResp struct {
	IDs       []string        `json:"ids"`
	Documents []string        `json:"documents"`
	Metadatas []ChunkMetadata `json:"metadatas"`
}

func (s *ChromaStore) GetByMetadata(ctx context.Context, filter map[string]any) (*GetResult, error) {
	if err := s.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	resp, err := s.post(ctx, s.collectionPath("get"), map[string]any{"where": filter})
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &GetResult{}, nil
	}

	var gr chromaGetResp
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode get response: %w", err)
	}

	return &GetResult{IDs: gr.IDs, Documents: gr.Documents, Metadatas: gr.Metadatas}, nil
}

// Heartbeat reports whether the Chroma server is reachable.
func (s *ChromaStore) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/api/v1/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("heartbeat request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heartbeat: status %d", resp.StatusCode)
	}
	return nil
}

func (s *ChromaStore) collectionPath(op string) string {
	return fmt.Sprintf("/api/v1/collections/%s/%s", s.collection, op)
}

func (s *ChromaStore) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.httpClient.Do(req)
}
