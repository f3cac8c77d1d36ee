package vectorstore

import (
	"context"
	"errors"
	"sort"

	"docmind/internal/rag/schema"
)

// ErrModelMismatch is returned when a query vector and the stored corpus
// were produced by different embedding models. Distances across embedding
// spaces are meaningless, so the query fails instead of returning them.
var ErrModelMismatch = errors.New("vectorstore: query and stored vectors come from different embedding models")

// ErrAccessViolation is returned when a search surfaces a chunk owned by a
// different user than the querying owner. The owner filter makes this
// unreachable in normal operation; if it ever trips, the query fails closed
// rather than leaking another user's content.
var ErrAccessViolation = errors.New("vectorstore: result crosses an ownership boundary")

// Store persists chunk vectors and answers nearest-neighbor queries.
type Store interface {
	// ReplaceChunks deletes any existing chunks for the document, then
	// inserts the given set. Callers observe either the old set or the new
	// one, never a mixture; the processing state machine guarantees no two
	// replacements run concurrently for one document.
	ReplaceChunks(ctx context.Context, documentID string, chunks []schema.Chunk) error

	// DeleteDocument removes all chunks for the document.
	DeleteDocument(ctx context.Context, documentID string) error

	// QueryNearest returns up to k chunks owned by ownerID, ordered by
	// ascending cosine distance to the query vector. documentID narrows the
	// search to one document when non-empty. model is the embedding model
	// tag of the query vector; a mismatch with the stored corpus fails with
	// ErrModelMismatch. The returned chunks carry provenance only, not text.
	QueryNearest(ctx context.Context, ownerID, documentID string, vector []float32, model string, k int) ([]schema.Scored, error)
}

// sortScored orders results by ascending distance, breaking ties by chunk
// index so identical inputs always produce identical rankings.
func sortScored(results []schema.Scored) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})
}
