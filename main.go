package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"pdfchat/controller"
	"pdfchat/services"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := services.LoadConfig()
	if cfg.GeminiAPIKey == "" {
		logger.Fatal("GEMINI_API_KEY is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Vector index
	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		logger.WithError(err).Fatal("failed to create chroma client")
	}
	defer func() {
		if err := chromaClient.Close(); err != nil {
			logger.WithError(err).Warn("failed to close chroma client")
		}
	}()

	collection, err := getOrCreateCollection(ctx, chromaClient, cfg.CollectionName)
	if err != nil {
		logger.WithError(err).Fatal("failed to get or create collection")
	}

	// Gemini client, shared by the embedding gateway and the generator
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create Gemini client")
	}
	logger.Info("connected to Google Gemini")

	// Blob storage
	storage, err := services.NewMinioStorage(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to object storage")
	}

	// Core pipeline
	embedder := services.NewGeminiEmbedder(geminiClient, cfg.EmbeddingModel, cfg.EmbeddingDimension, logger)
	index := services.NewChromaIndex(collection, logger)
	corpus := services.NewCorpusCache()
	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	retrievers := services.NewRetrieverFactory(embedder, index, corpus, cfg.RetrieverTopK, cfg.SemanticWeight, logger)
	ranker := services.NewRanker(cfg.MinSimilarity, cfg.MaxCitations, cfg.CitationTextLimit, cfg.DefaultConfidence)
	generator := services.NewGeminiGenerator(geminiClient, cfg.GenerationModel)
	memory := services.NewSessionMemory(cfg.SessionMaxExchanges)

	ragService := services.NewRAGService(storage, chunker, embedder, index, retrievers, ranker, generator, memory, corpus, logger)
	ragController := controller.NewRAGController(ragService, logger)

	if cfg.WatchDir != "" {
		watcher := services.NewDropFolderWatcher(ragService, logger)
		go watcher.Watch(ctx, cfg.WatchDir)
	}

	router := gin.Default()
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "PDF RAG API",
			"version": "1.0.0",
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/upload", ragController.Upload)
		apiV1.GET("/files", ragController.ListFiles)
		apiV1.DELETE("/files", ragController.DeleteFile)
		apiV1.POST("/chat", ragController.Chat)
		apiV1.POST("/reset", ragController.Reset)
		apiV1.GET("/status", ragController.Status)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

// getOrCreateCollection ensures the chroma collection exists.
func getOrCreateCollection(ctx context.Context, client chromago.Client, name string) (chromago.Collection, error) {
	return client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "PDF RAG chat collection"),
				chromago.NewStringAttribute("created_by", "pdfchat"),
			),
		),
	)
}

// corsMiddleware mirrors the permissive CORS policy used during frontend
// development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
