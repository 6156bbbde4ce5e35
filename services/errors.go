package services

import "errors"

// Sentinel errors separating client mistakes from deployment and provider
// failures. The controller maps these onto HTTP status codes.
var (
	// ErrEmptyDocument means extraction produced no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrUnsupportedFileType means the uploaded file is not a PDF.
	ErrUnsupportedFileType = errors.New("unsupported file type, only PDF is accepted")

	// ErrUnsupportedRetriever means the requested retriever mode is unknown.
	ErrUnsupportedRetriever = errors.New("unsupported retriever type")

	// ErrRetrieverUnavailable means keyword retrieval was requested but no
	// chunk corpus is cached in this process.
	ErrRetrieverUnavailable = errors.New("keyword retriever unavailable: no cached corpus")

	// ErrResetNotConfirmed means reset was called without the confirm flag.
	ErrResetNotConfirmed = errors.New("reset requires confirm=true")

	// ErrDimensionMismatch means the embedding provider returned a vector of
	// a different dimension than configured. Fatal configuration error.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
