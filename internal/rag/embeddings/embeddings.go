package embeddings

import (
	"context"
	"fmt"
)

// Client is the contract for a text embedding model. Document-side and
// query-side vectors must come from the same client (same model) for the
// distances over one corpus to mean anything; Model reports the identifier
// stored alongside every vector so that invariant can be checked at query
// time.
type Client interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts. The
	// result is ordered 1:1 with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the embedding model identifier.
	Model() string

	// Dim returns the vector dimension the model produces.
	Dim() int
}

// ServiceError reports a failure of the external embedding service.
// Transient failures (rate limits, timeouts, upstream 5xx) may be retried;
// anything else (auth, malformed input, exhausted quota) is terminal for the
// request.
type ServiceError struct {
	Transient bool
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
