package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"ragchat/internal/rag"
	"ragchat/internal/storage"
	"ragchat/pkg/textextract"
)

// safeFilename rejects path traversal and anything else surprising in a
// user-supplied filename.
var safeFilename = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

type DocumentHandler struct {
	uploads       *storage.LocalStorage
	ingestor      *rag.Ingestor
	maxFileSizeMB int
}

func NewDocumentHandler(uploads *storage.LocalStorage, ingestor *rag.Ingestor, maxFileSizeMB int) *DocumentHandler {
	return &DocumentHandler{uploads: uploads, ingestor: ingestor, maxFileSizeMB: maxFileSizeMB}
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
	Message  string `json:"message"`
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.maxFileSizeMB) << 20
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	filename := header.Filename
	if !safeFilename.MatchString(filename) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if !textextract.Supported(filepath.Ext(filename)) {
		writeError(w, http.StatusBadRequest, "only PDF and TXT files are allowed")
		return
	}
	if header.Size > maxBytes {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file size exceeds %dMB limit", h.maxFileSizeMB))
		return
	}

	if err := h.uploads.Save(filename, file); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	content, err := h.uploads.Read(filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read stored file")
		return
	}

	stats, err := h.ingestor.Ingest(r.Context(), filename, content)
	if err != nil {
		// No partial indexing is reported as success; drop the stored
		// file so disk and index stay in agreement.
		_ = h.uploads.Delete(filename)
		writeError(w, ingestStatus(err), fmt.Sprintf("error processing document: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Filename: filename,
		Pages:    stats.Pages,
		Chunks:   stats.Chunks,
		Message:  fmt.Sprintf("Document processed successfully. %d chunks indexed.", stats.Chunks),
	})
}

func ingestStatus(err error) int {
	switch {
	case errors.Is(err, rag.ErrUnsupportedType), errors.Is(err, rag.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, rag.ErrIndexWrite):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type documentInfo struct {
	Filename   string  `json:"filename"`
	UploadDate string  `json:"upload_date"`
	Pages      int     `json:"pages"`
	SizeMB     float64 `json:"size_mb"`
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.uploads.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	docs := make([]documentInfo, 0, len(files))
	for _, f := range files {
		if !textextract.Supported(filepath.Ext(f.Filename)) {
			continue
		}

		pages := 0
		if content, err := h.uploads.Read(f.Filename); err == nil {
			pages, _ = textextract.PageCount(content, filepath.Ext(f.Filename))
		}

		docs = append(docs, documentInfo{
			Filename:   f.Filename,
			UploadDate: f.ModTime.UTC().Format("2006-01-02T15:04:05Z"),
			Pages:      pages,
			SizeMB:     float64(f.Size) / (1 << 20),
		})
	}

	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !safeFilename.MatchString(filename) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if !h.uploads.Exists(filename) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	removed, err := h.ingestor.Remove(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("error deleting document: %v", err))
		return
	}

	if err := h.uploads.Delete(filename); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        fmt.Sprintf("Document %s deleted successfully", filename),
		"removed_chunks": removed,
	})
}

func (h *DocumentHandler) View(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !safeFilename.MatchString(filename) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if !h.uploads.Exists(filename) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	mediaType := "text/plain"
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		mediaType = "application/pdf"
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, h.uploads.Path(filename))
}
