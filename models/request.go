package models

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Query         string `json:"query" binding:"required"`
	RetrieverType string `json:"retrieverType,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
}

// DeleteRequest identifies a stored document by its storage key.
type DeleteRequest struct {
	StorageKey string `json:"storageKey" binding:"required"`
}

// ResetRequest guards the destructive reset endpoint behind an explicit flag.
type ResetRequest struct {
	Confirm bool `json:"confirm"`
}
