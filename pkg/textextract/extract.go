package textextract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType is returned for file extensions this package cannot read.
var ErrUnsupportedType = errors.New("unsupported file type")

// Page is the raw text of a single page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Extract returns the per-page text of a document. Flat text files are a
// single page. Pages with no extractable text are dropped.
func Extract(data []byte, fileType string) ([]Page, error) {
	switch normalize(fileType) {
	case ".pdf":
		return extractPDF(data)
	case ".txt":
		return extractTXT(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}
}

// Supported reports whether Extract can handle the given file extension.
func Supported(fileType string) bool {
	switch normalize(fileType) {
	case ".pdf", ".txt":
		return true
	}
	return false
}

// PageCount returns the number of pages in a document without extracting
// text. Flat text files count as one page.
func PageCount(data []byte, fileType string) (int, error) {
	switch normalize(fileType) {
	case ".pdf":
		reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return 0, fmt.Errorf("open PDF: %w", err)
		}
		return reader.NumPage(), nil
	case ".txt":
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}
}

func normalize(fileType string) string {
	t := strings.ToLower(strings.TrimSpace(fileType))
	if t != "" && !strings.HasPrefix(t, ".") {
		t = "." + t
	}
	return t
}

func extractPDF(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

func extractTXT(data []byte) ([]Page, error) {
	text := string(bytes.TrimSpace(data))
	if text == "" {
		return nil, nil
	}
	return []Page{{Number: 1, Text: text}}, nil
}
