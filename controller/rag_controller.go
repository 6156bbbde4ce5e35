package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdfchat/models"
	"pdfchat/services"
)

// RAGController handles the HTTP requests for the RAG API. It depends on
// the RAGService to perform the actual business logic.
type RAGController struct {
	ragService services.RAGService
	logger     *logrus.Logger
}

// NewRAGController creates a controller with its service dependency
// injected from main.
func NewRAGController(service services.RAGService, logger *logrus.Logger) *RAGController {
	if logger == nil {
		logger = logrus.New()
	}
	return &RAGController{ragService: service, logger: logger}
}

// Upload is the handler for POST /api/v1/upload. It accepts one or more PDF
// files as multipart form data under the "files" field. A failing file
// aborts the rest of the batch.
func (c *RAGController) Upload(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No files provided under field 'files'"})
		return
	}

	resp := models.UploadResponse{Message: "upload complete"}
	for _, fh := range headers {
		if !services.IsSupportedFile(fh.Filename) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type: " + fh.Filename})
			return
		}
		f, err := fh.Open()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload: " + fh.Filename})
			return
		}
		uploaded, err := c.ragService.Ingest(ctx.Request.Context(), fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
		f.Close()
		if err != nil {
			c.abort(ctx, err, "Failed to ingest "+fh.Filename)
			return
		}
		resp.Files = append(resp.Files, *uploaded)
		resp.TotalChunks += uploaded.ChunkCount
	}

	ctx.JSON(http.StatusCreated, resp)
}

// Chat is the handler for POST /api/v1/chat.
func (c *RAGController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.ragService.Ask(ctx.Request.Context(), req)
	if err != nil {
		c.abort(ctx, err, "Failed to generate answer")
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// ListFiles is the handler for GET /api/v1/files.
func (c *RAGController) ListFiles(ctx *gin.Context) {
	response, err := c.ragService.ListFiles(ctx.Request.Context())
	if err != nil {
		c.abort(ctx, err, "Failed to list files")
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// DeleteFile is the handler for DELETE /api/v1/files.
func (c *RAGController) DeleteFile(ctx *gin.Context) {
	var req models.DeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.ragService.DeleteDocument(ctx.Request.Context(), req.StorageKey)
	if err != nil {
		c.abort(ctx, err, "Failed to delete document")
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// Reset is the handler for POST /api/v1/reset.
func (c *RAGController) Reset(ctx *gin.Context) {
	var req models.ResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.ragService.Reset(ctx.Request.Context(), req.Confirm)
	if err != nil {
		c.abort(ctx, err, "Failed to reset")
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// Status is the handler for GET /api/v1/status.
func (c *RAGController) Status(ctx *gin.Context) {
	response, err := c.ragService.Stats(ctx.Request.Context())
	if err != nil {
		c.abort(ctx, err, "Failed to read status")
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// abort maps the service error taxonomy onto HTTP statuses: client mistakes
// get 400, a missing keyword corpus gets 503, everything else is a generic
// 500 with the detail logged rather than leaked.
func (c *RAGController) abort(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrUnsupportedRetriever),
		errors.Is(err, services.ErrUnsupportedFileType),
		errors.Is(err, services.ErrResetNotConfirmed),
		errors.Is(err, services.ErrEmptyDocument):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRetrieverUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.logger.WithError(err).Error(fallback)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
