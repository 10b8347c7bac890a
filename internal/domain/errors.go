package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank or whitespace-only query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrRetrieverUnavailable signals that the local retrieval collaborator failed.
	ErrRetrieverUnavailable = errors.New("retriever unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
