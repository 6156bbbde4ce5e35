package models

// Citation is the user-facing provenance record attached to an answer.
// PageNumber is nil when the source chunk carried no parseable page.
type Citation struct {
	PDFName         string  `json:"pdfName"`
	PageNumber      *int    `json:"pageNumber,omitempty"`
	ChunkText       string  `json:"chunkText"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// ChatResponse is the output contract of the answer pipeline.
type ChatResponse struct {
	Query            string     `json:"query"`
	Answer           string     `json:"answer"`
	Citations        []Citation `json:"citations"`
	TotalSources     int        `json:"totalSources"`
	ProcessingTimeMs int64      `json:"processingTimeMs"`
	SessionID        string     `json:"sessionId,omitempty"`
}

// UploadedFile reports one ingested document.
type UploadedFile struct {
	Filename   string `json:"filename"`
	StorageKey string `json:"storageKey"`
	PageCount  int    `json:"pageCount"`
	ChunkCount int    `json:"chunkCount"`
}

// UploadResponse is returned by the upload endpoint for a whole batch.
type UploadResponse struct {
	Message     string         `json:"message"`
	Files       []UploadedFile `json:"files"`
	TotalChunks int            `json:"totalChunks"`
}

// StoredFile describes one object in blob storage.
type StoredFile struct {
	StorageKey   string `json:"storageKey"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	URL          string `json:"url,omitempty"`
}

// ListFilesResponse is returned by the files listing endpoint.
type ListFilesResponse struct {
	Count int          `json:"count"`
	Files []StoredFile `json:"files"`
}

// DeleteResponse reports the outcome of a single-document delete.
type DeleteResponse struct {
	Message        string `json:"message"`
	StorageKey     string `json:"storageKey"`
	VectorsDeleted int    `json:"vectorsDeleted"`
	Success        bool   `json:"success"`
}

// ResetResponse reports per-subsystem outcomes of a full reset. A failed
// subsystem contributes its error string to Details instead of failing the
// whole call.
type ResetResponse struct {
	Message        string            `json:"message"`
	FilesDeleted   int               `json:"filesDeleted"`
	VectorsDeleted int               `json:"vectorsDeleted"`
	Success        bool              `json:"success"`
	Details        map[string]string `json:"details,omitempty"`
}

// StatusResponse backs the status endpoint.
type StatusResponse struct {
	TotalVectors   int `json:"totalVectors"`
	CachedChunks   int `json:"cachedChunks"`
	ActiveSessions int `json:"activeSessions"`
}
