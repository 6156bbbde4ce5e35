package services

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"pdfchat/models"
)

// Chunker splits extracted document pages into overlapping passages sized
// for embedding. Splitting runs per page so every chunk carries an
// unambiguous page number.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
}

// NewChunker builds a chunker. Overlap larger than the chunk size is clamped
// to a tenth of it.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ".", " ", ""}),
		),
	}
}

// Split chunks all pages of one document. pdfName must already be the
// normalized original filename; sourceKey ties chunks back to the stored
// blob for cascading deletes. Chunk indexes are monotonic across the whole
// document.
func (c *Chunker) Split(pages []models.PageText, pdfName, sourceKey string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	idx := 0
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		parts, err := c.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				Text:       part,
				PDFName:    pdfName,
				PageNumber: page.Number,
				ChunkIndex: idx,
				SourceKey:  sourceKey,
			})
			idx++
		}
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	return chunks, nil
}
