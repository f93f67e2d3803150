package rag

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"ragchat/internal/vectorstore"
	"ragchat/pkg/chunker"
	"ragchat/pkg/textextract"
)

// Ingestion failure kinds.
var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrEmptyDocument   = errors.New("document has no extractable text")
	ErrIndexWrite      = errors.New("vector index write failed")
)

// Ingestor extracts, chunks, and indexes documents, and removes them again.
type Ingestor struct {
	store     vectorstore.Store
	chunkSize int
}

func NewIngestor(store vectorstore.Store, chunkSize int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	return &Ingestor{store: store, chunkSize: chunkSize}
}

// Ingest extracts per-page text from a document, chunks every page, and
// submits all chunks in a single index write so the document becomes visible
// as a whole or not at all. Chunk ids carry a fresh random suffix per
// ingestion attempt, so a re-upload never reuses ids.
func (ing *Ingestor) Ingest(ctx context.Context, filename string, content []byte) (IngestStats, error) {
	ext := filepath.Ext(filename)
	if !textextract.Supported(ext) {
		return IngestStats{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	pages, err := textextract.Extract(content, ext)
	if err != nil {
		return IngestStats{}, fmt.Errorf("extract %s: %w", filename, err)
	}
	if len(pages) == 0 {
		return IngestStats{}, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	var (
		documents []string
		metadatas []vectorstore.ChunkMetadata
		ids       []string
	)
	for _, page := range pages {
		for i, chunk := range chunker.Chunk(page.Text, ing.chunkSize) {
			documents = append(documents, chunk)
			metadatas = append(metadatas, vectorstore.ChunkMetadata{
				Filename: filename,
				Page:     page.Number,
				Chunk:    i + 1,
			})
			ids = append(ids, chunkID(filename, page.Number, i))
		}
	}
	if len(documents) == 0 {
		return IngestStats{}, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	if err := ing.store.Add(ctx, documents, metadatas, ids); err != nil {
		return IngestStats{}, fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}

	slog.Info("document indexed", "filename", filename, "pages", len(pages), "chunks", len(documents))

	return IngestStats{Chunks: len(documents), Pages: len(pages)}, nil
}

// Remove deletes every indexed chunk belonging to filename and returns how
// many were removed. A filename with no chunks succeeds with zero.
func (ing *Ingestor) Remove(ctx context.Context, filename string) (int, error) {
	got, err := ing.store.GetByMetadata(ctx, map[string]any{"filename": filename})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	if got == nil || len(got.IDs) == 0 {
		return 0, nil
	}

	if err := ing.store.Delete(ctx, got.IDs); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}

	slog.Info("document removed from index", "filename", filename, "chunks", len(got.IDs))

	return len(got.IDs), nil
}

// chunkID builds an id like "report.pdf_2_0_a1b2c3d4". The random suffix
// keeps ids unique across re-ingestions of the same file.
func chunkID(filename string, page, chunk int) string {
	u := uuid.New()
	return fmt.Sprintf("%s_%d_%d_%s", filename, page, chunk, hex.EncodeToString(u[:4]))
}
