package vectorstore

import (
	"context"
)

// ChunkMetadata is the fixed metadata schema attached to every indexed chunk.
// The store boundary converts to and from the backend's free-form metadata
// maps so nothing downstream handles an unconstrained map.
type ChunkMetadata struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Chunk    int    `json:"chunk"`
}

// QueryResult is one ranked hit from a similarity query. Distance is the raw
// metric from the backend, smaller meaning more similar.
type QueryResult struct {
	ID       string
	Document string
	Metadata ChunkMetadata
	Distance float64
}

// GetResult holds the chunks matching a metadata filter.
type GetResult struct {
	IDs       []string
	Documents []string
	Metadatas []ChunkMetadata
}

// Store abstracts the external similarity-search backend. Implementations
// establish the collection before any operation and report backend or network
// failure as an error return, never a panic.
type Store interface {
	// EnsureCollection creates the collection if it does not exist.
	// Idempotent.
	EnsureCollection(ctx context.Context) error

	// Add embeds and stores documents keyed by id. The three slices must
	// have equal length and ids must be unique within the call.
	Add(ctx context.Context, documents []string, metadatas []ChunkMetadata, ids []string) error

	// Query returns up to k results ranked most similar first. An empty or
	// missing collection yields an empty result set, not an error.
	Query(ctx context.Context, text string, k int) ([]QueryResult, error)

	// Delete removes the chunks with the given ids.
	Delete(ctx context.Context, ids []string) error

	// GetByMetadata returns all chunks whose metadata exactly matches the
	// filter, e.g. every chunk of one filename.
	GetByMetadata(ctx context.Context, filter map[string]any) (*GetResult, error)
}
