package models

// PageText is one page of extracted document text.
type PageText struct {
	Number int
	Text   string
}

// Chunk is a bounded span of document text, the unit of embedding and
// retrieval. Extra carries provider-specific metadata fields that are not
// part of the core contract but must round-trip through the vector index.
type Chunk struct {
	Text       string
	PDFName    string
	PageNumber int
	ChunkIndex int
	SourceKey  string
	Extra      map[string]interface{}
}

// Candidate is a transient ranked retrieval result. KeywordMatchCount is
// filled in by the ranker, not the retriever.
type Candidate struct {
	Text              string
	Metadata          map[string]interface{}
	SimilarityScore   float64
	KeywordMatchCount int
}
