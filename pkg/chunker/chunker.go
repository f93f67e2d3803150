package chunker

import (
	"strings"
)

// DefaultChunkSize is the target chunk length in characters.
const DefaultChunkSize = 1000

// sectionHeaders are literal record markers that start a new section in
// record-like documents. Splitting before them keeps a whole field (header
// plus its lines) inside one chunk instead of cutting a fact in half.
var sectionHeaders = []string{
	"CASE DETAILS:",
	"LEGAL ISSUES:",
	"DAMAGES:",
	"EMPLOYMENT DETAILS:",
	"PERSONAL INFORMATION:",
	"CLIENT ID:",
}

// Chunk splits text into chunks of at most maxLen characters. It splits on
// structural boundaries (paragraph breaks and known section headers) when the
// text has any, falling back to sentence boundaries otherwise, and greedily
// packs the resulting units. A single unit longer than maxLen is kept whole
// rather than cut mid-token.
func Chunk(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	units := splitStructural(text)
	if len(units) <= 1 {
		units = splitSentences(text)
	}

	return pack(units, maxLen)
}

// pack accumulates units into a chunk until adding the next unit would exceed
// maxLen, then flushes and starts a new chunk carrying the overflow unit.
func pack(units []string, maxLen int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(unit) > maxLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(unit)
	}
	flush()

	return chunks
}

// splitStructural splits on paragraph breaks and section headers. Headers
// stay attached to the text that follows them. Text with no structure at all
// comes back as a single unit.
func splitStructural(text string) []string {
	var units []string
	for _, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		units = append(units, splitSections(para)...)
	}
	return units
}

func splitSections(para string) []string {
	var units []string
	var current strings.Builder

	for _, line := range strings.Split(para, "\n") {
		if startsSection(line) && current.Len() > 0 {
			units = append(units, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		units = append(units, current.String())
	}
	return units
}

func startsSection(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, h := range sectionHeaders {
		if strings.HasPrefix(trimmed, h) {
			return true
		}
	}
	return false
}

// splitSentences splits on ". " boundaries, keeping the terminator with its
// sentence. Text with no sentence-terminal punctuation comes back as a single
// unit, possibly longer than any chunk limit.
func splitSentences(text string) []string {
	flat := strings.ReplaceAll(text, "\n", " ")
	parts := strings.Split(flat, ". ")

	sentences := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i < len(parts)-1 && !strings.HasSuffix(part, ".") {
			part += "."
		}
		sentences = append(sentences, part)
	}
	return sentences
}
