package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// EmbeddingProvider turns text into fixed-dimension vectors. The dimension
// is agreed with the vector index at startup; a mismatch is fatal.
type EmbeddingProvider interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// GeminiEmbedder implements EmbeddingProvider on top of the Gemini
// embedding API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	logger    *logrus.Logger
}

// NewGeminiEmbedder wraps an existing genai client.
func NewGeminiEmbedder(client *genai.Client, model string, dimension int, logger *logrus.Logger) *GeminiEmbedder {
	if logger == nil {
		logger = logrus.New()
	}
	return &GeminiEmbedder{client: client, model: model, dimension: dimension, logger: logger}
}

// Dimension returns the configured vector dimension.
func (g *GeminiEmbedder) Dimension() int { return g.dimension }

// EmbedQuery embeds a single query string.
func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds document chunks in one call.
func (g *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return g.embed(ctx, texts)
}

func (g *GeminiEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.Text(t)...)
	}

	dim := int32(g.dimension)
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embedding call failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if len(e.Values) != g.dimension {
			g.logger.WithFields(logrus.Fields{
				"expected": g.dimension,
				"got":      len(e.Values),
			}).Error("embedding dimension mismatch, check EMBEDDING_DIMENSION")
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, g.dimension, len(e.Values))
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}
