package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/models"
)

type stubRetriever struct {
	results []models.Candidate
	err     error
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string) ([]models.Candidate, error) {
	return s.results, s.err
}

func testCorpus() *CorpusCache {
	corpus := NewCorpusCache()
	corpus.Add([]models.Chunk{
		{Text: "The capital of France is Paris.", PDFName: "france.pdf", PageNumber: 1, ChunkIndex: 0, SourceKey: "k1"},
		{Text: "Rome is the capital of Italy.", PDFName: "italy.pdf", PageNumber: 1, ChunkIndex: 0, SourceKey: "k2"},
		{Text: "Grapes grow in many climates.", PDFName: "wine.pdf", PageNumber: 3, ChunkIndex: 0, SourceKey: "k3"},
	})
	return corpus
}

func TestKeywordRetrieverRanksByRelevance(t *testing.T) {
	r := &keywordRetriever{corpus: testCorpus(), topK: 3}

	results, err := r.Retrieve(context.Background(), "capital of France")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Contains(t, results[0].Text, "France")
	assert.Equal(t, "france.pdf", results[0].Metadata["pdf_name"])
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-9, "best match is normalized to 1")
}

func TestKeywordRetrieverUnavailableWithoutCorpus(t *testing.T) {
	r := &keywordRetriever{corpus: NewCorpusCache(), topK: 3}

	_, err := r.Retrieve(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrRetrieverUnavailable)
}

func TestKeywordRetrieverEmptyQuery(t *testing.T) {
	r := &keywordRetriever{corpus: testCorpus(), topK: 3}

	results, err := r.Retrieve(context.Background(), "???")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridRetrieverFusesBothLegs(t *testing.T) {
	shared := models.Candidate{
		Text:            "The capital of France is Paris.",
		Metadata:        map[string]interface{}{"source_key": "k1", "chunk_index": 0},
		SimilarityScore: 0.9,
	}
	semanticOnly := models.Candidate{
		Text:            "European geography overview.",
		Metadata:        map[string]interface{}{"source_key": "k9", "chunk_index": 0},
		SimilarityScore: 0.95,
	}
	keywordOnly := models.Candidate{
		Text:            "France exports wine.",
		Metadata:        map[string]interface{}{"source_key": "k3", "chunk_index": 0},
		SimilarityScore: 0.8,
	}

	r := &hybridRetriever{
		semantic:       &stubRetriever{results: []models.Candidate{semanticOnly, shared}},
		keyword:        &stubRetriever{results: []models.Candidate{shared, keywordOnly}},
		semanticWeight: 0.7,
		topK:           3,
		logger:         logrus.New(),
	}

	results, err := r.Retrieve(context.Background(), "capital of France")
	require.NoError(t, err)
	require.Len(t, results, 3)

	// The candidate present in both legs accumulates weight from each and
	// outranks single-leg hits.
	assert.Equal(t, shared.Text, results[0].Text)
}

func TestHybridRetrieverDegradesWithoutCorpus(t *testing.T) {
	semanticResults := []models.Candidate{{Text: "semantic hit", SimilarityScore: 0.9}}
	r := &hybridRetriever{
		semantic:       &stubRetriever{results: semanticResults},
		keyword:        &stubRetriever{err: ErrRetrieverUnavailable},
		semanticWeight: 0.7,
		topK:           3,
		logger:         logrus.New(),
	}

	results, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err, "keyword leg failure must not fail hybrid retrieval")
	assert.Equal(t, semanticResults, results)
}

func TestHybridTieBreakPrefersSemanticRank(t *testing.T) {
	first := models.Candidate{
		Text:            "first semantic",
		Metadata:        map[string]interface{}{"source_key": "a", "chunk_index": 0},
		SimilarityScore: 0.9,
	}
	second := models.Candidate{
		Text:            "second semantic",
		Metadata:        map[string]interface{}{"source_key": "b", "chunk_index": 0},
		SimilarityScore: 0.9,
	}

	r := &hybridRetriever{
		semantic:       &stubRetriever{results: []models.Candidate{first, second}},
		keyword:        &stubRetriever{results: []models.Candidate{}},
		semanticWeight: 0.7,
		topK:           2,
		logger:         logrus.New(),
	}

	results, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first semantic", results[0].Text)
	assert.Equal(t, "second semantic", results[1].Text)
}

func TestHybridTiedKeywordOnlyOrderIsDeterministic(t *testing.T) {
	kwA := models.Candidate{
		Text:            "keyword hit A",
		Metadata:        map[string]interface{}{"source_key": "a", "chunk_index": 0},
		SimilarityScore: 1,
	}
	kwB := models.Candidate{
		Text:            "keyword hit B",
		Metadata:        map[string]interface{}{"source_key": "b", "chunk_index": 0},
		SimilarityScore: 1,
	}

	r := &hybridRetriever{
		semantic:       &stubRetriever{results: []models.Candidate{}},
		keyword:        &stubRetriever{results: []models.Candidate{kwA, kwB}},
		semanticWeight: 0.7,
		topK:           3,
		logger:         logrus.New(),
	}

	first, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "keyword hit A", first[0].Text, "ties keep the keyword leg's order")

	for i := 0; i < 25; i++ {
		again, err := r.Retrieve(context.Background(), "query")
		require.NoError(t, err)
		require.Equal(t, first, again, "iteration %d", i)
	}
}

func TestRetrieverFactoryModes(t *testing.T) {
	f := NewRetrieverFactory(nil, nil, NewCorpusCache(), 3, 0.7, logrus.New())

	for _, mode := range []string{"", RetrieverSemantic, RetrieverKeyword, RetrieverHybrid} {
		r, err := f.Build(mode)
		require.NoError(t, err, "mode %q", mode)
		require.NotNil(t, r)
	}

	_, err := f.Build("bm42")
	assert.ErrorIs(t, err, ErrUnsupportedRetriever)
}
