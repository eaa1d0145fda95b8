package models

import "errors"

// Failure kinds surfaced by the ingestion and query pipelines. Callers match
// with errors.Is; the concrete cause is wrapped alongside.
var (
	// ErrDocumentUnreadable means the uploaded bytes are not a valid document
	// of the expected format.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrEmbeddingFailure means the embedding model could not produce a vector.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrIndexUnavailable means the vector index rejected an upsert or query.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrNoRelevantContext means retrieval returned zero entries. This is a
	// recognized outcome, not a hard failure.
	ErrNoRelevantContext = errors.New("no relevant context")

	// ErrGenerationUnavailable means the generative model could not be reached
	// or returned no output.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrDeadline means an external call exceeded its configured timeout.
	ErrDeadline = errors.New("external call deadline exceeded")
)
