package pipeline

import (
	"context"
	"fmt"

	"docmind/internal/models"
	"docmind/internal/rag/chunker"
	"docmind/internal/rag/embeddings"
	"docmind/internal/rag/schema"
	"docmind/internal/rag/vectorstore"
	"docmind/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// embedBatchSize bounds how many chunk texts go into one embedding request.
const embedBatchSize = 64

// embedConcurrency bounds how many embedding requests run at once for a
// single document, so one large document cannot monopolize the service.
const embedConcurrency = 4

// ChunkWriter persists a document's chunk rows as a whole set. The
// relational rows are the source of truth for chunk text and ordering.
type ChunkWriter interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []schema.Chunk) error
}

// Indexer turns a document's raw text into an embedded, queryable chunk set:
// chunk, embed, then replace the stored set in the relational store and the
// vector index.
type Indexer struct {
	embedder embeddings.Client
	vectors  vectorstore.Store
	chunks   ChunkWriter
	window   int
	overlap  int
	log      *logger.Logger
}

// NewIndexer creates an Indexer with the given word-window parameters.
func NewIndexer(embedder embeddings.Client, vectors vectorstore.Store, chunks ChunkWriter, window, overlap int, log *logger.Logger) *Indexer {
	return &Indexer{
		embedder: embedder,
		vectors:  vectors,
		chunks:   chunks,
		window:   window,
		overlap:  overlap,
		log:      log,
	}
}

// Run chunks and embeds the document and replaces its stored chunk set,
// returning the number of chunks written. Chunking is deterministic, and the
// replacement is delete-then-insert, so rerunning after a failure converges
// on the same result.
func (p *Indexer) Run(ctx context.Context, doc *models.Document) (int, error) {
	pieces, err := chunker.Chunk(doc.Content, p.window, p.overlap)
	if err != nil {
		return 0, err
	}
	p.log.Info(fmt.Sprintf("Split document %s into %d chunks", doc.ID, len(pieces)))

	chunks := make([]schema.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = schema.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			OwnerID:    doc.UserID,
			Index:      piece.Index,
			Text:       piece.Text,
			Model:      p.embedder.Model(),
		}
	}

	if err := p.embedAll(ctx, chunks); err != nil {
		return 0, err
	}
	p.log.Info(fmt.Sprintf("Embedded all %d chunks for document %s", len(chunks), doc.ID))

	// Relational rows first: retrieval resolves chunk text by ID from them,
	// so a vector visible before its row simply yields no result rather
	// than stale text.
	if err := p.chunks.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("replacing chunk rows: %w", err)
	}
	if err := p.vectors.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("replacing chunk vectors: %w", err)
	}

	return len(chunks), nil
}

// embedAll fills in the Embedding of every chunk, batching requests and
// bounding concurrency. Each goroutine writes only its own slice range.
func (p *Indexer) embedAll(ctx context.Context, chunks []schema.Chunk) error {
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		eg.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}
			vectors, err := p.embedder.EmbedBatch(gCtx, texts)
			if err != nil {
				return err
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			return nil
		})
	}

	return eg.Wait()
}
