package rag

import (
	"strings"
)

// maxSnippetLen bounds the text echoed back to callers in a citation.
const maxSnippetLen = 300

// noRelevantInfoMarker is the phrase the model is prompted to use when the
// supplied context did not help.
const noRelevantInfoMarker = "no relevant information"

// AttributeSources decides which retrieved passages are reported as the
// sources of answer. The policy trusts the model: when context was supplied
// and the answer does not disclaim it, every retrieved passage is cited.
// Fine-grained text matching against the answer proved too fragile to be
// worth its precision.
func AttributeSources(answer string, results []RetrievalResult) []SourceReference {
	if len(results) == 0 {
		return nil
	}
	if strings.Contains(strings.ToLower(answer), noRelevantInfoMarker) {
		return nil
	}

	sources := make([]SourceReference, len(results))
	for i, r := range results {
		sources[i] = SourceReference{
			Filename: r.Chunk.Filename,
			Page:     r.Chunk.Page,
			Snippet:  snippet(r.Chunk.Text),
		}
	}
	return sources
}

func snippet(text string) string {
	if len(text) <= maxSnippetLen {
		return text
	}
	return text[:maxSnippetLen] + "..."
}
