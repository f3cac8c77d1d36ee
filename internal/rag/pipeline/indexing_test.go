package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docmind/internal/models"
)

func testDocument(words int) *models.Document {
	return &models.Document{
		ID:      "doc-1",
		UserID:  "u1",
		Title:   "test",
		Content: strings.TrimSpace(strings.Repeat("word ", words)),
	}
}

func TestIndexerRunWritesBothStores(t *testing.T) {
	embedder := &fakeEmbedder{}
	vectors := &fakeVectorStore{}
	writer := &fakeChunkWriter{}
	idx := NewIndexer(embedder, vectors, writer, 400, 50, testLogger())

	n, err := idx.Run(context.Background(), testDocument(1000))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 3 {
		t.Fatalf("chunk count = %d, want 3", n)
	}

	rows := writer.replaced["doc-1"]
	points := vectors.replaced["doc-1"]
	if len(rows) != 3 || len(points) != 3 {
		t.Fatalf("rows = %d, vectors = %d, want 3 each", len(rows), len(points))
	}

	for i, c := range rows {
		if c.ID == "" {
			t.Errorf("rows[%d] has no ID", i)
		}
		if c.DocumentID != "doc-1" || c.OwnerID != "u1" {
			t.Errorf("rows[%d] scoped to document %q owner %q", i, c.DocumentID, c.OwnerID)
		}
		if c.Index != i {
			t.Errorf("rows[%d].Index = %d, want %d", i, c.Index, i)
		}
		if c.Model != embedder.Model() {
			t.Errorf("rows[%d].Model = %q, want %q", i, c.Model, embedder.Model())
		}
		if len(c.Embedding) != embedder.Dim() {
			t.Errorf("rows[%d] embedding dim = %d, want %d", i, len(c.Embedding), embedder.Dim())
		}
	}
}

func TestIndexerRunAssignsEmbeddingsToMatchingChunks(t *testing.T) {
	embedder := &fakeEmbedder{}
	vectors := &fakeVectorStore{}
	writer := &fakeChunkWriter{}
	idx := NewIndexer(embedder, vectors, writer, 400, 50, testLogger())

	if _, err := idx.Run(context.Background(), testDocument(1000)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The fake embeds a text as [len(text), 1, 1], so each chunk's first
	// component must equal its own text length.
	for i, c := range writer.replaced["doc-1"] {
		if got := int(c.Embedding[0]); got != len(c.Text) {
			t.Errorf("chunk %d embedding belongs to a text of length %d, chunk text length is %d", i, got, len(c.Text))
		}
	}
}

func TestIndexerRunEmbeddingFailure(t *testing.T) {
	wantErr := errors.New("embedding service down")
	vectors := &fakeVectorStore{}
	writer := &fakeChunkWriter{}
	idx := NewIndexer(&fakeEmbedder{err: wantErr}, vectors, writer, 400, 50, testLogger())

	_, err := idx.Run(context.Background(), testDocument(1000))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(writer.replaced) != 0 || len(vectors.replaced) != 0 {
		t.Error("no store should be written when embedding fails")
	}
}

func TestIndexerRunRowWriteFailureSkipsVectors(t *testing.T) {
	wantErr := errors.New("database unavailable")
	vectors := &fakeVectorStore{}
	writer := &fakeChunkWriter{err: wantErr}
	idx := NewIndexer(&fakeEmbedder{}, vectors, writer, 400, 50, testLogger())

	_, err := idx.Run(context.Background(), testDocument(1000))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(vectors.replaced) != 0 {
		t.Error("vector index written despite the relational write failing")
	}
}

func TestIndexerRunInvalidChunking(t *testing.T) {
	idx := NewIndexer(&fakeEmbedder{}, &fakeVectorStore{}, &fakeChunkWriter{}, 400, 400, testLogger())

	if _, err := idx.Run(context.Background(), testDocument(100)); err == nil {
		t.Fatal("expected an error for overlap >= window")
	}
}

func TestIndexerRunShortDocumentSingleChunk(t *testing.T) {
	writer := &fakeChunkWriter{}
	idx := NewIndexer(&fakeEmbedder{}, &fakeVectorStore{}, writer, 400, 50, testLogger())

	n, err := idx.Run(context.Background(), testDocument(12))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 1 {
		t.Fatalf("chunk count = %d, want 1", n)
	}
	if got := writer.replaced["doc-1"][0].Text; got != testDocument(12).Content {
		t.Errorf("short document chunk text = %q, want the verbatim content", got)
	}
}
