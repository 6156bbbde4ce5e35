package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"pdfchat/models"
)

func init() {
	if key := os.Getenv("UNIDOC_LICENSE_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			fmt.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.\n", err)
		}
	}
}

// ExtractPages pulls the text of every page from a PDF stream, keeping
// 1-based page numbers for citation metadata.
func ExtractPages(r io.ReadSeeker) ([]models.PageText, error) {
	pdfReader, err := model.NewPdfReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}

	pages := make([]models.PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to get page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor for page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, models.PageText{Number: i, Text: text})
	}
	return pages, nil
}

// IsSupportedFile reports whether the filename indicates an ingestible
// document type.
func IsSupportedFile(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".pdf"
}

// NormalizeFilename recovers the original filename from a storage-layer name.
// Storage keys prefix uploads with a 32-char hex token and an underscore;
// that prefix is stripped here so citations show the name the user uploaded.
// Heuristic: a legitimately hex-prefixed filename would also be stripped.
func NormalizeFilename(name string) string {
	base := filepath.Base(name)
	if i := strings.IndexByte(base, '_'); i == 32 && isHex(base[:i]) {
		return base[i+1:]
	}
	return base
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}
