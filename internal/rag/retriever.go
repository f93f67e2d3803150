package rag

import (
	"context"
	"log/slog"

	"ragchat/internal/vectorstore"
)

const (
	// DefaultTopK is how many candidates are pulled from the index before
	// threshold filtering.
	DefaultTopK = 5

	// DefaultSimilarityThreshold is the minimum normalized similarity a
	// chunk must reach to be used as context.
	DefaultSimilarityThreshold = 0.3
)

// Retriever runs similarity queries and filters the hits by score. Index
// failure degrades to an empty result set; retrieval must never block answer
// generation.
type Retriever struct {
	store     vectorstore.Store
	topK      int
	threshold float64
}

func NewRetriever(store vectorstore.Store, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Retriever{store: store, topK: topK, threshold: threshold}
}

// Retrieve returns the passages relevant to question, most similar first.
// Raw distances are remapped to similarity = 1 - distance/2, assuming a
// cosine-like metric bounded at 2, and results below the threshold are
// dropped.
func (r *Retriever) Retrieve(ctx context.Context, question string) []RetrievalResult {
	hits, err := r.store.Query(ctx, question, r.topK)
	if err != nil {
		slog.Warn("index query failed, answering without context", "error", err)
		return nil
	}

	var results []RetrievalResult
	for _, hit := range hits {
		similarity := 1 - hit.Distance/2
		if similarity < r.threshold {
			continue
		}
		results = append(results, RetrievalResult{
			Chunk: DocumentChunk{
				ID:         hit.ID,
				Filename:   hit.Metadata.Filename,
				Page:       hit.Metadata.Page,
				ChunkIndex: hit.Metadata.Chunk,
				Text:       hit.Document,
			},
			Distance:   hit.Distance,
			Similarity: similarity,
		})
	}

	slog.Debug("retrieval complete", "question", question, "hits", len(hits), "passed_threshold", len(results))

	return results
}
