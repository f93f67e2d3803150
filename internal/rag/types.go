package rag

// DocumentChunk is the unit of indexing and retrieval. ID is opaque and
// globally unique; (Filename, Page, ChunkIndex) is a display key only.
type DocumentChunk struct {
	ID         string
	Filename   string
	Page       int
	ChunkIndex int
	Text       string
}

// RetrievalResult is one retrieved chunk with its raw distance and the
// normalized similarity derived from it.
type RetrievalResult struct {
	Chunk      DocumentChunk
	Distance   float64
	Similarity float64
}

// SourceReference is the externally visible view of a cited chunk. Snippet
// is trimmed to a bounded length.
type SourceReference struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Snippet  string `json:"snippet"`
}

// IngestStats summarizes a successful ingestion.
type IngestStats struct {
	Chunks int
	Pages  int
}
