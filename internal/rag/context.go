package rag

import (
	"fmt"
	"strings"
)

// BuildContext renders retrieved passages into one prompt-ready block,
// preserving retrieval order with 1-based source numbering. Empty input
// yields an empty string; the prompt builder then switches to the
// no-context variant so the model knows it is answering without grounding.
func BuildContext(results []RetrievalResult) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "Source %d (from %s, page %d):\n%s\n\n", i+1, r.Chunk.Filename, r.Chunk.Page, r.Chunk.Text)
	}
	return sb.String()
}

func buildPrompt(contextText, question string) string {
	if contextText == "" {
		return fmt.Sprintf(`No documents have been uploaded yet or no relevant information was found. Please provide a general response to this question:

%s`, question)
	}

	return fmt.Sprintf(`Based on the following context from uploaded documents, please answer the user's question. If the context doesn't contain relevant information, say so and provide a general response.

Context:
%s

User Question: %s

Please provide a helpful answer and reference which sources you used:`, contextText, question)
}
