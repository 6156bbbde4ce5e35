package services

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"pdfchat/models"
)

// UnknownDocument is the citation name used when no metadata field yields a
// filename.
const UnknownDocument = "Unknown Document"

// Ranker filters and orders retrieval candidates into citations. The
// inclusion gate is deliberately an OR of lexical overlap and similarity:
// similarity alone admits topically-adjacent passages that do not answer
// the question, and keyword overlap alone misses paraphrase. Both knobs are
// configuration, not law.
type Ranker struct {
	// minSimilarity admits candidates with zero keyword overlap when their
	// cosine similarity exceeds it.
	minSimilarity float64
	// maxCitations caps the returned citations after ordering.
	maxCitations int
	// textLimit truncates citation text for display.
	textLimit int
	// defaultConfidence is used when the retriever supplies no usable score.
	defaultConfidence float64
}

// NewRanker builds a ranker from config, falling back to the documented
// defaults for out-of-range values.
func NewRanker(minSimilarity float64, maxCitations, textLimit int, defaultConfidence float64) *Ranker {
	if maxCitations <= 0 {
		maxCitations = 1
	}
	if textLimit <= 0 {
		textLimit = 500
	}
	if defaultConfidence <= 0 || defaultConfidence > 1 {
		defaultConfidence = 0.8
	}
	return &Ranker{
		minSimilarity:     minSimilarity,
		maxCitations:      maxCitations,
		textLimit:         textLimit,
		defaultConfidence: defaultConfidence,
	}
}

// Rank applies the relevance policy: count query-keyword hits per candidate,
// keep candidates with any hit or sufficient similarity, order by hit count
// (stable, so equal counts keep their similarity rank), cap, and rebuild
// citations from metadata. The surviving candidates come back alongside the
// citations because the prompt needs the untruncated passage text in ranked
// order. Deterministic for identical input; an empty result is a normal
// outcome, never an error.
func (r *Ranker) Rank(query string, candidates []models.Candidate) ([]models.Candidate, []models.Citation) {
	keywords := strings.Fields(strings.ToLower(query))

	kept := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.KeywordMatchCount = countMatches(keywords, c.Text)
		if c.KeywordMatchCount > 0 || c.SimilarityScore > r.minSimilarity {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].KeywordMatchCount > kept[j].KeywordMatchCount
	})

	if len(kept) > r.maxCitations {
		kept = kept[:r.maxCitations]
	}

	citations := make([]models.Citation, 0, len(kept))
	for _, c := range kept {
		citations = append(citations, r.toCitation(c))
	}
	return kept, citations
}

func countMatches(keywords []string, text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

func (r *Ranker) toCitation(c models.Candidate) models.Citation {
	text := c.Text
	if len(text) > r.textLimit {
		// back the cut up to a rune boundary so the citation stays valid UTF-8
		cut := r.textLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}

	confidence := r.defaultConfidence
	if c.SimilarityScore > 0 {
		confidence = c.SimilarityScore
		if confidence > 1 {
			confidence = 1
		}
	}

	return models.Citation{
		PDFName:         resolvePDFName(c.Metadata),
		PageNumber:      resolvePage(c.Metadata),
		ChunkText:       text,
		ConfidenceScore: confidence,
	}
}

// resolvePDFName walks the metadata fallback chain: explicit pdf_name, then
// original_filename, then the basename of source/file_path with any 32-hex
// storage prefix stripped.
func resolvePDFName(metadata map[string]interface{}) string {
	for _, field := range []string{"pdf_name", "original_filename"} {
		if name, ok := metadata[field].(string); ok && name != "" {
			return name
		}
	}
	for _, field := range []string{"source", "file_path"} {
		if path, ok := metadata[field].(string); ok && path != "" {
			return NormalizeFilename(filepath.Base(path))
		}
	}
	return UnknownDocument
}

// resolvePage parses the page number out of metadata that may hold an int,
// a JSON float, or a string. Anything unparseable means no page.
func resolvePage(metadata map[string]interface{}) *int {
	v, ok := metadata["page"]
	if !ok {
		v, ok = metadata["page_number"]
	}
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		p := int(n)
		return &p
	case float64:
		p := int(n)
		return &p
	case string:
		if p, err := strconv.Atoi(n); err == nil {
			return &p
		}
	}
	return nil
}
