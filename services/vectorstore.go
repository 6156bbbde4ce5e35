package services

import (
	"context"
	"encoding/json"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdfchat/models"
)

// VectorIndex is the narrow contract the pipeline needs from a vector
// database: upsert chunks, similarity search, cascading delete by source
// key, full wipe, and a count for the status endpoint.
type VectorIndex interface {
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, topK int) ([]models.Candidate, error)
	DeleteBySourceKey(ctx context.Context, sourceKey string) (int, error)
	DeleteAll(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

// ChromaIndex implements VectorIndex over a ChromaDB collection.
type ChromaIndex struct {
	collection chromago.Collection
	logger     *logrus.Logger
}

// NewChromaIndex wraps an existing collection.
func NewChromaIndex(collection chromago.Collection, logger *logrus.Logger) *ChromaIndex {
	if logger == nil {
		logger = logrus.New()
	}
	return &ChromaIndex{collection: collection, logger: logger}
}

// Upsert stores one vector per chunk together with its citation metadata.
func (s *ChromaIndex) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	for i, chunk := range chunks {
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("pdf_name", chunk.PDFName),
			chromago.NewStringAttribute("original_filename", chunk.PDFName),
			chromago.NewStringAttribute("source", chunk.PDFName),
			chromago.NewStringAttribute("source_key", chunk.SourceKey),
			chromago.NewIntAttribute("page", int64(chunk.PageNumber)),
			chromago.NewIntAttribute("chunk_index", int64(chunk.ChunkIndex)),
		)
		docID := chromago.DocumentID(fmt.Sprintf("%s-chunk%d", uuid.New().String(), chunk.ChunkIndex))
		err := s.collection.Add(ctx,
			chromago.WithIDs(docID),
			chromago.WithTexts(chunk.Text),
			chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(vectors[i])),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("failed to add chunk %d of %s to chromadb: %w", chunk.ChunkIndex, chunk.PDFName, err)
		}
	}
	return nil
}

// Query runs a top-k similarity search. Chroma reports cosine distance;
// candidates carry similarity as 1 - distance so downstream thresholds work
// on the cosine-similarity scale.
func (s *ChromaIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.Candidate, error) {
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()

	var candidates []models.Candidate
	if len(documentGroups) == 0 {
		return candidates, nil
	}
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		var metadataMap map[string]interface{}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) && metadataGroups[0][i] != nil {
			metadataMap = metadataToMap(metadataGroups[0][i], s.logger)
		}
		similarity := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			similarity = 1 - float64(distanceGroups[0][i])
		}
		candidates = append(candidates, models.Candidate{
			Text:            doc.ContentString(),
			Metadata:        metadataMap,
			SimilarityScore: similarity,
		})
	}
	return candidates, nil
}

// DeleteBySourceKey removes every vector whose metadata references the given
// storage key, returning how many were removed.
func (s *ChromaIndex) DeleteBySourceKey(ctx context.Context, sourceKey string) (int, error) {
	count, err := s.countBySourceKey(ctx, sourceKey)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	where := chromago.EqString("source_key", sourceKey)
	if err := s.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return 0, fmt.Errorf("failed to delete vectors for %s: %w", sourceKey, err)
	}
	return count, nil
}

// DeleteAll wipes the collection by cascading over every source key present.
func (s *ChromaIndex) DeleteAll(ctx context.Context) (int, error) {
	results, err := s.collection.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list collection: %w", err)
	}
	keys := make(map[string]int)
	total := 0
	for _, meta := range results.GetMetadatas() {
		if meta == nil {
			continue
		}
		m := metadataToMap(meta, s.logger)
		if key, ok := m["source_key"].(string); ok {
			keys[key]++
			total++
		}
	}
	for key := range keys {
		where := chromago.EqString("source_key", key)
		if err := s.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
			return total - keys[key], fmt.Errorf("failed to delete vectors for %s: %w", key, err)
		}
	}
	return total, nil
}

// Count reports the total number of vectors in the collection.
func (s *ChromaIndex) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

func (s *ChromaIndex) countBySourceKey(ctx context.Context, sourceKey string) (int, error) {
	results, err := s.collection.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list collection: %w", err)
	}
	count := 0
	for _, meta := range results.GetMetadatas() {
		if meta == nil {
			continue
		}
		m := metadataToMap(meta, s.logger)
		if key, ok := m["source_key"].(string); ok && key == sourceKey {
			count++
		}
	}
	return count, nil
}

// metadataToMap converts chroma's DocumentMetadata into a plain map. The
// struct exposes no accessor for the full attribute set, so it round-trips
// through JSON.
func metadataToMap(meta chromago.DocumentMetadata, logger *logrus.Logger) map[string]interface{} {
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		logger.WithError(err).Warn("could not marshal chroma metadata")
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &m); err != nil {
		logger.WithError(err).Warn("could not unmarshal chroma metadata")
		return map[string]interface{}{}
	}
	return m
}
