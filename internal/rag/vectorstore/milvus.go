package vectorstore

import (
	"context"
	"fmt"

	"docmind/internal/database/milvus"
	"docmind/internal/rag/schema"
	"docmind/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Milvus collection fields. The collection is created from config by
// milvus.EnsureCollection; names here must match the configured schema.
const (
	FieldID         = "id"
	FieldDocumentID = "document_id"
	FieldUserID     = "user_id"
	FieldChunkIndex = "chunk_index"
	FieldModel      = "model"
	FieldEmbedding  = "embedding"
)

// MilvusStore implements Store on a Milvus collection.
type MilvusStore struct {
	log        *logger.Logger
	client     client.Client
	milvus     *milvus.MilvusClient
	collection string
}

// NewMilvusStore creates a Store over the project's Milvus client wrapper.
func NewMilvusStore(milvusClient *milvus.MilvusClient, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{
		log:        log,
		client:     milvusClient.Client,
		milvus:     milvusClient,
		collection: milvusClient.Config.Schema.CollectionName,
	}, nil
}

// ReplaceChunks deletes the document's existing vectors and inserts the new
// set, then flushes so searches observe the swap.
func (s *MilvusStore) ReplaceChunks(ctx context.Context, documentID string, chunks []schema.Chunk) error {
	if err := s.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	docIDs := make([]string, len(chunks))
	userIDs := make([]string, len(chunks))
	indexes := make([]int64, len(chunks))
	models := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))

	dim := len(chunks[0].Embedding)
	for i, c := range chunks {
		ids[i] = c.ID
		docIDs[i] = c.DocumentID
		userIDs[i] = c.OwnerID
		indexes[i] = int64(c.Index)
		models[i] = c.Model
		embeddings[i] = c.Embedding
		if len(c.Embedding) != dim {
			return fmt.Errorf("chunk %d has dimension %d, expected %d", c.Index, len(c.Embedding), dim)
		}
	}

	s.log.Info(fmt.Sprintf("Inserting %d chunks for document %s into collection %s", len(chunks), documentID, s.collection))
	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldDocumentID, docIDs),
		entity.NewColumnVarChar(FieldUserID, userIDs),
		entity.NewColumnInt64(FieldChunkIndex, indexes),
		entity.NewColumnVarChar(FieldModel, models),
		entity.NewColumnFloatVector(FieldEmbedding, dim, embeddings),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunks into Milvus: %w", err)
	}

	return s.milvus.Flush(ctx)
}

// DeleteDocument removes all vectors belonging to the document.
func (s *MilvusStore) DeleteDocument(ctx context.Context, documentID string) error {
	expr := fmt.Sprintf(`%s == "%s"`, FieldDocumentID, documentID)
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete chunks for document %s: %w", documentID, err)
	}
	return nil
}

// QueryNearest performs a cosine search restricted to the owner (and
// optionally one document), converting Milvus similarity scores to cosine
// distance and enforcing the ownership and embedding-model invariants on
// every returned row.
func (s *MilvusStore) QueryNearest(ctx context.Context, ownerID, documentID string, vector []float32, model string, k int) ([]schema.Scored, error) {
	expr := fmt.Sprintf(`%s == "%s"`, FieldUserID, ownerID)
	if documentID != "" {
		expr = fmt.Sprintf(`%s and %s == "%s"`, expr, FieldDocumentID, documentID)
	}

	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)
	outputFields := []string{FieldID, FieldDocumentID, FieldUserID, FieldChunkIndex, FieldModel}

	s.log.Debug(fmt.Sprintf("Searching collection '%s' with filter: %s", s.collection, expr))

	searchResults, err := s.client.Search(
		ctx, s.collection, []string{}, expr, outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.COSINE, k, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	var results []schema.Scored
	for _, res := range searchResults {
		rows, err := s.scoredRows(res, ownerID, model)
		if err != nil {
			return nil, err
		}
		results = append(results, rows...)
	}

	sortScored(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// scoredRows converts one search result into scored chunks, enforcing the
// ownership and embedding-model invariants on every row.
func (s *MilvusStore) scoredRows(res client.SearchResult, ownerID, model string) ([]schema.Scored, error) {
	findColumn := func(name string) entity.Column {
		for _, field := range res.Fields {
			if field.Name() == name {
				return field
			}
		}
		return nil
	}

	idCol, ok := findColumn(FieldID).(*entity.ColumnVarChar)
	if !ok {
		s.log.Warn("Search result is missing the id field, skipping")
		return nil, nil
	}
	docIDCol, _ := findColumn(FieldDocumentID).(*entity.ColumnVarChar)
	userIDCol, _ := findColumn(FieldUserID).(*entity.ColumnVarChar)
	indexCol, _ := findColumn(FieldChunkIndex).(*entity.ColumnInt64)
	modelCol, _ := findColumn(FieldModel).(*entity.ColumnVarChar)

	rows := make([]schema.Scored, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		chunk := schema.Chunk{ID: idCol.Data()[i]}
		if docIDCol != nil {
			chunk.DocumentID = docIDCol.Data()[i]
		}
		if userIDCol != nil {
			chunk.OwnerID = userIDCol.Data()[i]
		}
		if indexCol != nil {
			chunk.Index = int(indexCol.Data()[i])
		}
		if modelCol != nil {
			chunk.Model = modelCol.Data()[i]
		}

		if chunk.OwnerID != ownerID {
			return nil, ErrAccessViolation
		}
		if chunk.Model != model {
			return nil, ErrModelMismatch
		}

		// COSINE search scores are similarities in [-1, 1]; convert to
		// distance so lower always means closer.
		rows = append(rows, schema.Scored{
			Chunk:    chunk,
			Distance: 1 - float64(res.Scores[i]),
		})
	}
	return rows, nil
}

var _ Store = (*MilvusStore)(nil)
