package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"pdfchat/models"
)

// Retriever modes accepted over the chat endpoint.
const (
	RetrieverSemantic = "semantic"
	RetrieverKeyword  = "keyword"
	RetrieverHybrid   = "hybrid"
)

// Retriever produces scored candidate passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.Candidate, error)
}

// RetrieverFactory builds the retrieval strategy requested per call.
type RetrieverFactory struct {
	embedder EmbeddingProvider
	index    VectorIndex
	corpus   *CorpusCache
	topK     int
	// semanticWeight is the hybrid fusion weight for the semantic leg; the
	// keyword leg gets the complement.
	semanticWeight float64
	logger         *logrus.Logger
}

// NewRetrieverFactory wires the shared collaborators.
func NewRetrieverFactory(embedder EmbeddingProvider, index VectorIndex, corpus *CorpusCache, topK int, semanticWeight float64, logger *logrus.Logger) *RetrieverFactory {
	if topK <= 0 {
		topK = 3
	}
	if semanticWeight <= 0 || semanticWeight >= 1 {
		semanticWeight = 0.7
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RetrieverFactory{
		embedder:       embedder,
		index:          index,
		corpus:         corpus,
		topK:           topK,
		semanticWeight: semanticWeight,
		logger:         logger,
	}
}

// Build returns the retriever for the given mode.
func (f *RetrieverFactory) Build(mode string) (Retriever, error) {
	switch mode {
	case "", RetrieverSemantic:
		return &semanticRetriever{embedder: f.embedder, index: f.index, topK: f.topK}, nil
	case RetrieverKeyword:
		return &keywordRetriever{corpus: f.corpus, topK: f.topK}, nil
	case RetrieverHybrid:
		return &hybridRetriever{
			semantic:       &semanticRetriever{embedder: f.embedder, index: f.index, topK: f.topK},
			keyword:        &keywordRetriever{corpus: f.corpus, topK: f.topK},
			semanticWeight: f.semanticWeight,
			topK:           f.topK,
			logger:         f.logger,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRetriever, mode)
	}
}

// semanticRetriever embeds the query and runs a vector top-k search.
type semanticRetriever struct {
	embedder EmbeddingProvider
	index    VectorIndex
	topK     int
}

func (r *semanticRetriever) Retrieve(ctx context.Context, query string) ([]models.Candidate, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return r.index.Query(ctx, vector, r.topK)
}

// keywordRetriever scores the cached corpus with BM25 (k1=1.5, b=0.75).
// Scores are normalized to [0,1] against the best match so they are
// comparable with the semantic leg during fusion.
type keywordRetriever struct {
	corpus *CorpusCache
	topK   int
}

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

func (r *keywordRetriever) Retrieve(_ context.Context, query string) ([]models.Candidate, error) {
	chunks := r.corpus.Snapshot()
	if len(chunks) == 0 {
		return nil, ErrRetrieverUnavailable
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return []models.Candidate{}, nil
	}

	docTerms := make([]map[string]int, len(chunks))
	docLens := make([]float64, len(chunks))
	docFreq := make(map[string]int)
	totalLen := 0.0
	for i, ch := range chunks {
		tf := make(map[string]int)
		terms := tokenize(ch.Text)
		for _, t := range terms {
			tf[t]++
		}
		docTerms[i] = tf
		docLens[i] = float64(len(terms))
		totalLen += docLens[i]
		for t := range tf {
			docFreq[t]++
		}
	}
	avgLen := totalLen / float64(len(chunks))

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, 0, len(chunks))
	for i := range chunks {
		s := 0.0
		for _, term := range queryTerms {
			df := docFreq[term]
			if df == 0 {
				continue
			}
			tf := float64(docTerms[i][term])
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + (float64(len(chunks))-float64(df)+0.5)/(float64(df)+0.5))
			norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*docLens[i]/avgLen))
			s += idf * norm
		}
		if s > 0 {
			scores = append(scores, scored{i, s})
		}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })

	topK := r.topK
	if topK > len(scores) {
		topK = len(scores)
	}
	maxScore := 0.0
	if len(scores) > 0 {
		maxScore = scores[0].score
	}
	out := make([]models.Candidate, 0, topK)
	for _, sc := range scores[:topK] {
		ch := chunks[sc.idx]
		normalized := 0.0
		if maxScore > 0 {
			normalized = sc.score / maxScore
		}
		out = append(out, models.Candidate{
			Text:            ch.Text,
			Metadata:        chunkMetadata(ch),
			SimilarityScore: normalized,
		})
	}
	return out, nil
}

// hybridRetriever fuses the semantic and keyword legs with a weighted sum
// over per-list max-normalized scores. A missing keyword corpus degrades to
// semantic-only with a logged warning instead of failing the request.
type hybridRetriever struct {
	semantic       Retriever
	keyword        Retriever
	semanticWeight float64
	topK           int
	logger         *logrus.Logger
}

func (r *hybridRetriever) Retrieve(ctx context.Context, query string) ([]models.Candidate, error) {
	semanticResults, err := r.semantic.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	keywordResults, err := r.keyword.Retrieve(ctx, query)
	if err != nil {
		r.logger.WithError(err).Warn("hybrid retrieval degraded to semantic-only")
		return semanticResults, nil
	}

	return r.fuse(semanticResults, keywordResults), nil
}

type fusedCandidate struct {
	candidate    models.Candidate
	score        float64
	semanticRank int
}

func (r *hybridRetriever) fuse(semanticResults, keywordResults []models.Candidate) []models.Candidate {
	// list keeps insertion order (semantic leg in rank order, then keyword
	// leg in score order) so the stable sort breaks remaining ties
	// deterministically instead of in map-iteration order.
	fused := make(map[string]*fusedCandidate)
	list := make([]*fusedCandidate, 0, len(semanticResults)+len(keywordResults))

	maxSem := maxSimilarity(semanticResults)
	for i, c := range semanticResults {
		normalized := 0.0
		if maxSem > 0 {
			normalized = c.SimilarityScore / maxSem
		}
		fc := &fusedCandidate{
			candidate:    c,
			score:        r.semanticWeight * normalized,
			semanticRank: i,
		}
		fused[candidateID(c)] = fc
		list = append(list, fc)
	}

	maxKw := maxSimilarity(keywordResults)
	for _, c := range keywordResults {
		normalized := 0.0
		if maxKw > 0 {
			normalized = c.SimilarityScore / maxKw
		}
		id := candidateID(c)
		if existing, ok := fused[id]; ok {
			existing.score += (1 - r.semanticWeight) * normalized
			continue
		}
		fc := &fusedCandidate{
			candidate:    c,
			score:        (1 - r.semanticWeight) * normalized,
			semanticRank: len(semanticResults), // behind every semantic hit on ties
		}
		fused[id] = fc
		list = append(list, fc)
	}

	sort.SliceStable(list, func(a, b int) bool {
		if list[a].score != list[b].score {
			return list[a].score > list[b].score
		}
		return list[a].semanticRank < list[b].semanticRank
	})

	topK := r.topK
	if topK > len(list) {
		topK = len(list)
	}
	out := make([]models.Candidate, 0, topK)
	for _, fc := range list[:topK] {
		out = append(out, fc.candidate)
	}
	return out
}

func maxSimilarity(candidates []models.Candidate) float64 {
	m := 0.0
	for _, c := range candidates {
		if c.SimilarityScore > m {
			m = c.SimilarityScore
		}
	}
	return m
}

// candidateID identifies a passage across both retrieval legs so fusion can
// merge duplicate hits.
func candidateID(c models.Candidate) string {
	key, _ := c.Metadata["source_key"].(string)
	if key != "" {
		return fmt.Sprintf("%s#%v", key, c.Metadata["chunk_index"])
	}
	return c.Text
}

func chunkMetadata(ch models.Chunk) map[string]interface{} {
	m := map[string]interface{}{
		"pdf_name":          ch.PDFName,
		"original_filename": ch.PDFName,
		"source":            ch.PDFName,
		"source_key":        ch.SourceKey,
		"page":              ch.PageNumber,
		"chunk_index":       ch.ChunkIndex,
	}
	for k, v := range ch.Extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return m
}

func tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}
