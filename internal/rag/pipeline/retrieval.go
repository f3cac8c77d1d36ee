package pipeline

import (
	"context"
	"fmt"

	"docmind/internal/rag/embeddings"
	"docmind/internal/rag/schema"
	"docmind/internal/rag/vectorstore"
	"docmind/pkg/logger"
)

// ChunkReader resolves chunk text by ID, scoped to the owning user.
type ChunkReader interface {
	GetChunksByIDs(ctx context.Context, ownerID string, ids []string) (map[string]schema.Chunk, error)
}

// Retriever finds the chunks most relevant to a question: embed the question
// with the corpus's embedding model, run the owner-scoped nearest-neighbor
// query, then enrich the hits with their text from the relational store.
type Retriever struct {
	embedder embeddings.Client
	vectors  vectorstore.Store
	chunks   ChunkReader
	topK     int
	log      *logger.Logger
}

// NewRetriever creates a Retriever. topK is deliberately small: more chunks
// dilute relevance and inflate generation cost.
func NewRetriever(embedder embeddings.Client, vectors vectorstore.Store, chunks ChunkReader, topK int, log *logger.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		vectors:  vectors,
		chunks:   chunks,
		topK:     topK,
		log:      log,
	}
}

// Retrieve returns up to topK chunks of the given document, most relevant
// first. An owner with no indexed chunks gets an empty slice, not an error;
// "no context" is a state the generation side must handle explicitly.
func (p *Retriever) Retrieve(ctx context.Context, ownerID, documentID, question string) ([]schema.Chunk, error) {
	queryVector, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	scored, err := p.vectors.QueryNearest(ctx, ownerID, documentID, queryVector, p.embedder.Model(), p.topK)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		p.log.Info(fmt.Sprintf("No chunks found for owner %s, document %s", ownerID, documentID))
		return []schema.Chunk{}, nil
	}

	ids := make([]string, len(scored))
	for i, s := range scored {
		ids[i] = s.Chunk.ID
	}
	texts, err := p.chunks.GetChunksByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading chunk text: %w", err)
	}

	// A hit missing from the relational store means the vector belongs to a
	// replacement that is mid-flight; drop it rather than serve stale text.
	final := make([]schema.Chunk, 0, len(scored))
	for _, s := range scored {
		full, ok := texts[s.Chunk.ID]
		if !ok {
			p.log.Warn(fmt.Sprintf("Chunk %s has a vector but no row, skipping", s.Chunk.ID))
			continue
		}
		final = append(final, full)
	}

	p.log.Info(fmt.Sprintf("Retrieved %d chunks for owner %s", len(final), ownerID))
	return final, nil
}
