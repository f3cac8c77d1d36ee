package pipeline

import (
	"context"
	"sync"

	"docmind/internal/llm"
	"docmind/internal/rag/schema"
	"docmind/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("pipeline-test")
}

// fakeEmbedder returns deterministic vectors: [len(text), 1, 1].
type fakeEmbedder struct {
	model string
	err   error

	mu    sync.Mutex
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t)), 1, 1}
	}
	return vectors, nil
}

func (f *fakeEmbedder) Model() string {
	if f.model == "" {
		return "test-embedding-model"
	}
	return f.model
}

func (f *fakeEmbedder) Dim() int { return 3 }

// fakeVectorStore records replacements and serves canned query results.
type fakeVectorStore struct {
	results []schema.Scored
	err     error

	replaced map[string][]schema.Chunk
	deleted  []string

	lastOwner    string
	lastDocument string
	lastModel    string
	lastK        int
}

func (f *fakeVectorStore) ReplaceChunks(ctx context.Context, documentID string, chunks []schema.Chunk) error {
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]schema.Chunk)
	}
	f.replaced[documentID] = chunks
	return nil
}

func (f *fakeVectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *fakeVectorStore) QueryNearest(ctx context.Context, ownerID, documentID string, vector []float32, model string, k int) ([]schema.Scored, error) {
	f.lastOwner = ownerID
	f.lastDocument = documentID
	f.lastModel = model
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeChunkReader serves chunk text from a map.
type fakeChunkReader struct {
	chunks map[string]schema.Chunk
	err    error
}

func (f *fakeChunkReader) GetChunksByIDs(ctx context.Context, ownerID string, ids []string) (map[string]schema.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]schema.Chunk)
	for _, id := range ids {
		if c, ok := f.chunks[id]; ok && c.OwnerID == ownerID {
			out[id] = c
		}
	}
	return out, nil
}

// fakeChunkWriter records the replaced chunk set.
type fakeChunkWriter struct {
	replaced map[string][]schema.Chunk
	err      error
}

func (f *fakeChunkWriter) ReplaceChunks(ctx context.Context, documentID string, chunks []schema.Chunk) error {
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]schema.Chunk)
	}
	f.replaced[documentID] = chunks
	return nil
}

// fakeLLM returns a canned answer and records the messages it saw.
type fakeLLM struct {
	answer   string
	err      error
	messages []llm.Message
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// wordCounter is a token counter for assembler tests: one token per word.
func wordCounter(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}
