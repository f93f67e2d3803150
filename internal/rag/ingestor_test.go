package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestTextDocument(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(store, 500)

	stats, err := ing.Ingest(context.Background(), "notes.txt",
		[]byte("The capital of France is Paris. The capital of Italy is Rome."))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, store.addCalls, "all chunks go in a single add")

	for id, md := range store.metadatas {
		assert.True(t, strings.HasPrefix(id, "notes.txt_1_"))
		assert.Equal(t, "notes.txt", md.Filename)
		assert.Equal(t, 1, md.Page)
		assert.Equal(t, 1, md.Chunk)
	}
}

func TestIngestGeneratesFreshIDs(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(store, 500)

	content := []byte("A fact worth indexing.")
	_, err := ing.Ingest(context.Background(), "a.txt", content)
	require.NoError(t, err)
	_, err = ing.Ingest(context.Background(), "a.txt", content)
	require.NoError(t, err)

	// Same content twice, different random suffixes: both ids survive.
	assert.Len(t, store.documents, 2)
}

func TestIngestUnsupportedType(t *testing.T) {
	ing := NewIngestor(newFakeStore(), 500)

	_, err := ing.Ingest(context.Background(), "slides.pptx", []byte("content"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestIngestEmptyContent(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(store, 500)

	_, err := ing.Ingest(context.Background(), "blank.txt", []byte("   \n\t  "))
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Empty(t, store.documents, "nothing indexed on failure")
}

func TestIngestIndexWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.failAdd = true
	ing := NewIngestor(store, 500)

	_, err := ing.Ingest(context.Background(), "notes.txt", []byte("Some content here."))
	assert.ErrorIs(t, err, ErrIndexWrite)
}

func TestRemoveCascadesByFilename(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(store, 100)

	_, err := ing.Ingest(context.Background(), "a.txt",
		[]byte("First fact about alpha. Second fact about alpha. Third fact about alpha."))
	require.NoError(t, err)
	_, err = ing.Ingest(context.Background(), "b.txt", []byte("A fact about beta."))
	require.NoError(t, err)

	removed, err := ing.Remove(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Greater(t, removed, 0)

	// Chunks of a.txt are gone, b.txt untouched.
	got, err := store.GetByMetadata(context.Background(), map[string]any{"filename": "a.txt"})
	require.NoError(t, err)
	assert.Empty(t, got.IDs)

	got, err = store.GetByMetadata(context.Background(), map[string]any{"filename": "b.txt"})
	require.NoError(t, err)
	assert.Len(t, got.IDs, 1)
}

func TestRemoveUnknownFilename(t *testing.T) {
	ing := NewIngestor(newFakeStore(), 500)

	removed, err := ing.Remove(context.Background(), "never-uploaded.pdf")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRemoveDeleteFailure(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(store, 500)

	_, err := ing.Ingest(context.Background(), "a.txt", []byte("A fact."))
	require.NoError(t, err)

	store.failDelete = true
	_, err = ing.Remove(context.Background(), "a.txt")
	assert.ErrorIs(t, err, ErrIndexWrite)
}
