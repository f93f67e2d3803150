package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"ragchat/internal/database"
	"ragchat/internal/history"
	"ragchat/internal/rag"
	"ragchat/internal/storage"
	"ragchat/internal/vectorstore"
)

// memStore is an in-memory vectorstore.Store for handler tests.
type memStore struct {
	documents map[string]string
	metadatas map[string]vectorstore.ChunkMetadata
	failAdd   bool
}

func newMemStore() *memStore {
	return &memStore{
		documents: map[string]string{},
		metadatas: map[string]vectorstore.ChunkMetadata{},
	}
}

func (m *memStore) EnsureCollection(ctx context.Context) error { return nil }

func (m *memStore) Add(ctx context.Context, documents []string, metadatas []vectorstore.ChunkMetadata, ids []string) error {
	if m.failAdd {
		return errors.New("backend unreachable")
	}
	for i, id := range ids {
		m.documents[id] = documents[i]
		m.metadatas[id] = metadatas[i]
	}
	return nil
}

func (m *memStore) Query(ctx context.Context, text string, k int) ([]vectorstore.QueryResult, error) {
	return nil, nil
}

func (m *memStore) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.documents, id)
		delete(m.metadatas, id)
	}
	return nil
}

func (m *memStore) GetByMetadata(ctx context.Context, filter map[string]any) (*vectorstore.GetResult, error) {
	filename, _ := filter["filename"].(string)
	res := &vectorstore.GetResult{}
	for id, md := range m.metadatas {
		if md.Filename == filename {
			res.IDs = append(res.IDs, id)
			res.Documents = append(res.Documents, m.documents[id])
			res.Metadatas = append(res.Metadatas, md)
		}
	}
	return res, nil
}

// fixedAnswerer returns a canned pipeline answer.
type fixedAnswerer struct {
	answer rag.Answer
}

func (f *fixedAnswerer) Answer(ctx context.Context, question string) (rag.Answer, error) {
	return f.answer, nil
}

func newDocumentRouter(t *testing.T, store vectorstore.Store) (*chi.Mux, *storage.LocalStorage) {
	t.Helper()

	uploads, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	h := NewDocumentHandler(uploads, rag.NewIngestor(store, 500), 50)

	r := chi.NewRouter()
	r.Post("/documents/upload", h.Upload)
	r.Get("/documents/", h.List)
	r.Delete("/documents/{filename}", h.Delete)
	r.Get("/documents/view/{filename}", h.View)
	return r, uploads
}

func newChatRouter(t *testing.T, answer rag.Answer) (*chi.Mux, *history.Service) {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := history.NewService(db)
	h := NewChatHandler(sessions, &fixedAnswerer{answer: answer})

	r := chi.NewRouter()
	r.Post("/chat/sessions/", h.CreateSession)
	r.Get("/chat/sessions/", h.ListSessions)
	r.Delete("/chat/sessions/{id}", h.DeleteSession)
	r.Get("/chat/sessions/{id}/messages", h.ListMessages)
	r.Post("/chat/sessions/{id}/messages", h.SendMessage)
	return r, sessions
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(r http.Handler, method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return doRequestRaw(r, req)
}

func doRequestRaw(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
