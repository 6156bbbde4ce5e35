package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"pdfchat/models"
)

// RAGService is the application core: ingestion, retrieval-augmented
// answering, and the admin operations over the stored corpus.
type RAGService interface {
	Ingest(ctx context.Context, filename string, r io.ReadSeeker, size int64, contentType string) (*models.UploadedFile, error)
	Ask(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	ListFiles(ctx context.Context) (*models.ListFilesResponse, error)
	DeleteDocument(ctx context.Context, storageKey string) (*models.DeleteResponse, error)
	Reset(ctx context.Context, confirm bool) (*models.ResetResponse, error)
	Stats(ctx context.Context) (*models.StatusResponse, error)
}

type ragServiceImpl struct {
	storage   BlobStorage
	chunker   *Chunker
	embedder  EmbeddingProvider
	index     VectorIndex
	retriever *RetrieverFactory
	ranker    *Ranker
	generator TextGenerator
	memory    *SessionMemory
	corpus    *CorpusCache
	logger    *logrus.Logger
}

// NewRAGService wires the pipeline from its collaborators.
func NewRAGService(
	storage BlobStorage,
	chunker *Chunker,
	embedder EmbeddingProvider,
	index VectorIndex,
	retriever *RetrieverFactory,
	ranker *Ranker,
	generator TextGenerator,
	memory *SessionMemory,
	corpus *CorpusCache,
	logger *logrus.Logger,
) RAGService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ragServiceImpl{
		storage:   storage,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		retriever: retriever,
		ranker:    ranker,
		generator: generator,
		memory:    memory,
		corpus:    corpus,
		logger:    logger,
	}
}

// Ingest runs the full ingestion path for one document: persist the blob,
// extract page text, chunk, embed, upsert, and extend the keyword corpus.
func (r *ragServiceImpl) Ingest(ctx context.Context, filename string, reader io.ReadSeeker, size int64, contentType string) (*models.UploadedFile, error) {
	if !IsSupportedFile(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}

	stored, err := r.storage.Save(ctx, filename, reader, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("could not store upload: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("could not rewind upload stream: %w", err)
	}
	pages, err := ExtractPages(reader)
	if err != nil {
		return nil, fmt.Errorf("could not extract %s: %w", filename, err)
	}

	chunks, err := r.chunker.Split(pages, NormalizeFilename(filename), stored.StorageKey)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("could not embed chunks of %s: %w", filename, err)
	}

	if err := r.index.Upsert(ctx, chunks, vectors); err != nil {
		return nil, err
	}
	r.corpus.Add(chunks)

	r.logger.WithFields(logrus.Fields{
		"file":   filename,
		"key":    stored.StorageKey,
		"pages":  len(pages),
		"chunks": len(chunks),
	}).Info("ingested document")

	return &models.UploadedFile{
		Filename:   filename,
		StorageKey: stored.StorageKey,
		PageCount:  len(pages),
		ChunkCount: len(chunks),
	}, nil
}

// Ask answers one query with retrieval-grounded generation. Zero surviving
// citations short-circuit to the fixed not-found answer without calling the
// generator. The session turn is recorded only after an answer exists.
func (r *ragServiceImpl) Ask(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()

	retriever, err := r.retriever.Build(req.RetrieverType)
	if err != nil {
		return nil, err
	}

	candidates, err := retriever.Retrieve(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	ranked, citations := r.ranker.Rank(req.Query, candidates)

	resp := &models.ChatResponse{
		Query:     req.Query,
		Citations: citations,
		SessionID: req.SessionID,
	}

	if len(citations) == 0 {
		resp.Answer = NotFoundAnswer
		resp.Citations = []models.Citation{}
		resp.ProcessingTimeMs = time.Since(start).Milliseconds()
		r.memory.Append(req.SessionID, req.Query, resp.Answer)
		r.logger.WithField("query", req.Query).Info("no relevant context found")
		return resp, nil
	}

	contextChunks := make([]string, len(ranked))
	for i, c := range ranked {
		contextChunks[i] = c.Text
	}
	prompt := BuildPrompt(contextChunks, req.Query, r.memory.Render(req.SessionID))

	answer, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("could not generate answer: %w", err)
	}

	resp.Answer = answer
	resp.TotalSources = len(citations)
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	r.memory.Append(req.SessionID, req.Query, answer)

	r.logger.WithFields(logrus.Fields{
		"retriever": req.RetrieverType,
		"sources":   resp.TotalSources,
		"tookMs":    resp.ProcessingTimeMs,
	}).Info("answered query")
	return resp, nil
}

// ListFiles returns the stored documents.
func (r *ragServiceImpl) ListFiles(ctx context.Context) (*models.ListFilesResponse, error) {
	files, err := r.storage.List(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ListFilesResponse{Count: len(files), Files: files}, nil
}

// DeleteDocument removes the blob and cascades into the vector index and
// corpus cache. Vector deletion failure is logged, not fatal: the blob is
// already gone and a retried delete is idempotent.
func (r *ragServiceImpl) DeleteDocument(ctx context.Context, storageKey string) (*models.DeleteResponse, error) {
	if err := r.storage.Delete(ctx, storageKey); err != nil {
		return nil, err
	}

	vectorsDeleted, err := r.index.DeleteBySourceKey(ctx, storageKey)
	if err != nil {
		r.logger.WithError(err).WithField("key", storageKey).Warn("vector cleanup failed after blob delete")
	}
	r.corpus.EvictBySourceKey(storageKey)

	return &models.DeleteResponse{
		Message:        "document deleted",
		StorageKey:     storageKey,
		VectorsDeleted: vectorsDeleted,
		Success:        true,
	}, nil
}

// Reset wipes both subsystems best-effort: each step runs regardless of the
// other's outcome and reports its own error in Details.
func (r *ragServiceImpl) Reset(ctx context.Context, confirm bool) (*models.ResetResponse, error) {
	if !confirm {
		return nil, ErrResetNotConfirmed
	}

	details := map[string]string{}

	filesDeleted, err := r.storage.DeleteAll(ctx)
	if err != nil {
		details["storage"] = err.Error()
		r.logger.WithError(err).Error("reset: storage wipe failed")
	}

	vectorsDeleted, err := r.index.DeleteAll(ctx)
	if err != nil {
		details["vectors"] = err.Error()
		r.logger.WithError(err).Error("reset: vector wipe failed")
	}

	r.corpus.Clear()
	r.memory.Clear()

	success := len(details) == 0
	message := "all data deleted"
	if !success {
		message = "reset completed with errors"
	}
	return &models.ResetResponse{
		Message:        message,
		FilesDeleted:   filesDeleted,
		VectorsDeleted: vectorsDeleted,
		Success:        success,
		Details:        details,
	}, nil
}

// Stats backs the status endpoint.
func (r *ragServiceImpl) Stats(ctx context.Context) (*models.StatusResponse, error) {
	total, err := r.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &models.StatusResponse{
		TotalVectors:   total,
		CachedChunks:   r.corpus.Len(),
		ActiveSessions: r.memory.Len(),
	}, nil
}
