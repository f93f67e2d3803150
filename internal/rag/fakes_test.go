package rag

import (
	"context"
	"errors"

	"ragchat/internal/llm"
	"ragchat/internal/vectorstore"
)

// fakeStore is an in-memory vectorstore.Store. Query similarity is faked by
// returning canned results; Add/Delete/GetByMetadata operate on stored ids.
type fakeStore struct {
	documents map[string]string
	metadatas map[string]vectorstore.ChunkMetadata

	queryResults []vectorstore.QueryResult

	failAdd    bool
	failQuery  bool
	failDelete bool
	failGet    bool

	addCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents: map[string]string{},
		metadatas: map[string]vectorstore.ChunkMetadata{},
	}
}

func (f *fakeStore) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeStore) Add(ctx context.Context, documents []string, metadatas []vectorstore.ChunkMetadata, ids []string) error {
	f.addCalls++
	if f.failAdd {
		return errors.New("backend unreachable")
	}
	for i, id := range ids {
		f.documents[id] = documents[i]
		f.metadatas[id] = metadatas[i]
	}
	return nil
}

func (f *fakeStore) Query(ctx context.Context, text string, k int) ([]vectorstore.QueryResult, error) {
	if f.failQuery {
		return nil, errors.New("backend unreachable")
	}
	if len(f.queryResults) > k {
		return f.queryResults[:k], nil
	}
	return f.queryResults, nil
}

func (f *fakeStore) Delete(ctx context.Context, ids []string) error {
	if f.failDelete {
		return errors.New("backend unreachable")
	}
	for _, id := range ids {
		delete(f.documents, id)
		delete(f.metadatas, id)
	}
	return nil
}

func (f *fakeStore) GetByMetadata(ctx context.Context, filter map[string]any) (*vectorstore.GetResult, error) {
	if f.failGet {
		return nil, errors.New("backend unreachable")
	}
	filename, _ := filter["filename"].(string)
	res := &vectorstore.GetResult{}
	for id, md := range f.metadatas {
		if md.Filename == filename {
			res.IDs = append(res.IDs, id)
			res.Documents = append(res.Documents, f.documents[id])
			res.Metadatas = append(res.Metadatas, md)
		}
	}
	return res, nil
}

// fakeLLM returns a fixed answer, or a fixed error, and records prompts.
type fakeLLM struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// resultWithSimilarity builds a canned query hit whose distance maps back to
// the given similarity under similarity = 1 - distance/2.
func resultWithSimilarity(id, filename, text string, similarity float64) vectorstore.QueryResult {
	return vectorstore.QueryResult{
		ID:       id,
		Document: text,
		Metadata: vectorstore.ChunkMetadata{Filename: filename, Page: 1, Chunk: 1},
		Distance: 2 * (1 - similarity),
	}
}
