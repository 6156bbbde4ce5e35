package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/models"
	"pdfchat/services"
)

// fakeRAGService lets each test script the service layer's outcome.
type fakeRAGService struct {
	askResp   *models.ChatResponse
	askErr    error
	resetResp *models.ResetResponse
	resetErr  error
	listResp  *models.ListFilesResponse
	delResp   *models.DeleteResponse
	delErr    error
	statsResp *models.StatusResponse
}

func (f *fakeRAGService) Ingest(context.Context, string, io.ReadSeeker, int64, string) (*models.UploadedFile, error) {
	return nil, errors.New("not under test")
}

func (f *fakeRAGService) Ask(context.Context, models.ChatRequest) (*models.ChatResponse, error) {
	return f.askResp, f.askErr
}

func (f *fakeRAGService) ListFiles(context.Context) (*models.ListFilesResponse, error) {
	return f.listResp, nil
}

func (f *fakeRAGService) DeleteDocument(context.Context, string) (*models.DeleteResponse, error) {
	return f.delResp, f.delErr
}

func (f *fakeRAGService) Reset(context.Context, bool) (*models.ResetResponse, error) {
	return f.resetResp, f.resetErr
}

func (f *fakeRAGService) Stats(context.Context) (*models.StatusResponse, error) {
	return f.statsResp, nil
}

func newTestRouter(svc services.RAGService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := NewRAGController(svc, logger)

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat", c.Chat)
		v1.GET("/files", c.ListFiles)
		v1.DELETE("/files", c.DeleteFile)
		v1.POST("/reset", c.Reset)
		v1.GET("/status", c.Status)
	}
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatReturnsAnswer(t *testing.T) {
	svc := &fakeRAGService{askResp: &models.ChatResponse{
		Query:        "q",
		Answer:       "Paris",
		Citations:    []models.Citation{{PDFName: "france.pdf", ChunkText: "chunk"}},
		TotalSources: 1,
	}}
	w := postJSON(t, newTestRouter(svc), "/api/v1/chat", gin.H{"query": "q"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Paris", resp.Answer)
	assert.Len(t, resp.Citations, 1)
}

func TestChatRejectsMissingQuery(t *testing.T) {
	w := postJSON(t, newTestRouter(&fakeRAGService{}), "/api/v1/chat", gin.H{"retriever_type": "semantic"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unsupported retriever", services.ErrUnsupportedRetriever, http.StatusBadRequest},
		{"keyword corpus empty", services.ErrRetrieverUnavailable, http.StatusServiceUnavailable},
		{"internal failure", errors.New("gemini: quota exceeded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeRAGService{askErr: tc.err}
			w := postJSON(t, newTestRouter(svc), "/api/v1/chat", gin.H{"query": "q"})
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestChatInternalErrorDetailNotLeaked(t *testing.T) {
	svc := &fakeRAGService{askErr: errors.New("dial tcp: secret-host refused")}
	w := postJSON(t, newTestRouter(svc), "/api/v1/chat", gin.H{"query": "q"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-host")
}

func TestResetWithoutConfirmIsBadRequest(t *testing.T) {
	svc := &fakeRAGService{resetErr: services.ErrResetNotConfirmed}
	w := postJSON(t, newTestRouter(svc), "/api/v1/reset", gin.H{"confirm": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRequiresStorageKey(t *testing.T) {
	router := newTestRouter(&fakeRAGService{})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/files", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFiles(t *testing.T) {
	svc := &fakeRAGService{listResp: &models.ListFilesResponse{
		Count: 1,
		Files: []models.StoredFile{{StorageKey: "storage_01/abc_a.pdf", OriginalName: "a.pdf"}},
	}}
	router := newTestRouter(svc)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.ListFilesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestStatus(t *testing.T) {
	svc := &fakeRAGService{statsResp: &models.StatusResponse{TotalVectors: 7, CachedChunks: 7}}
	router := newTestRouter(svc)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.TotalVectors)
}
