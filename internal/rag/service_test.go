package rag

import (
	"context"
	"errors"
	"sync"
	"testing"

	"docmind/internal/llm"
	"docmind/internal/models"
	"docmind/internal/rag/pipeline"
	"docmind/internal/rag/schema"
	"docmind/pkg/logger"
)

// fakeDocuments implements the status claim the way the database does: the
// claim succeeds only when the status is not already processing.
type fakeDocuments struct {
	mu   sync.Mutex
	docs map[string]*models.Document

	finishCalls []models.DocumentStatus
}

func (f *fakeDocuments) GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.UserID != ownerID {
		return nil, errors.New("record not found")
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocuments) TryMarkProcessing(ctx context.Context, ownerID, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.UserID != ownerID || doc.Status == models.StatusProcessing {
		return false, nil
	}
	doc.Status = models.StatusProcessing
	return true, nil
}

func (f *fakeDocuments) FinishProcessing(ctx context.Context, id string, status models.DocumentStatus, summary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := f.docs[id]
	doc.Status = status
	doc.Summary = summary
	f.finishCalls = append(f.finishCalls, status)
	return nil
}

type fakeConversations struct {
	convs   map[string]*models.Conversation
	touched []string
}

func (f *fakeConversations) GetConversation(ctx context.Context, ownerID, id string) (*models.Conversation, error) {
	conv, ok := f.convs[id]
	if !ok || conv.UserID != ownerID {
		return nil, errors.New("record not found")
	}
	return conv, nil
}

func (f *fakeConversations) TouchConversation(ctx context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeMessages struct {
	history  []models.Message
	appended []models.Message
}

func (f *fakeMessages) AppendMessage(ctx context.Context, msg *models.Message) error {
	f.appended = append(f.appended, *msg)
	return nil
}

func (f *fakeMessages) RecentMessages(ctx context.Context, conversationID string, n int) ([]models.Message, error) {
	if len(f.history) > n {
		return f.history[len(f.history)-n:], nil
	}
	return f.history, nil
}

type fakeIndexer struct {
	count   int
	err     error
	started chan struct{} // closed on first Run, if set
	release chan struct{} // Run blocks until closed, if set

	mu   sync.Mutex
	runs int
}

func (f *fakeIndexer) Run(ctx context.Context, doc *models.Document) (int, error) {
	f.mu.Lock()
	f.runs++
	first := f.runs == 1
	f.mu.Unlock()
	if first && f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

type fakeRetriever struct {
	chunks []schema.Chunk
	err    error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, ownerID, documentID, question string) ([]schema.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

type fakeLLM struct {
	answer string
	err    error
	calls  int
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func testAssembler() *pipeline.Assembler {
	return pipeline.NewAssemblerWithCounter(10, 3000, func(s string) int { return len(s) })
}

type serviceParts struct {
	docs      *fakeDocuments
	convs     *fakeConversations
	msgs      *fakeMessages
	indexer   DocumentIndexer
	retriever *fakeRetriever
	llm       *fakeLLM
}

func newTestService(p serviceParts) *Service {
	log := logger.New("rag-test")
	if p.docs == nil {
		p.docs = &fakeDocuments{docs: map[string]*models.Document{}}
	}
	if p.convs == nil {
		p.convs = &fakeConversations{convs: map[string]*models.Conversation{}}
	}
	if p.msgs == nil {
		p.msgs = &fakeMessages{}
	}
	if p.indexer == nil {
		p.indexer = &fakeIndexer{}
	}
	if p.retriever == nil {
		p.retriever = &fakeRetriever{}
	}
	if p.llm == nil {
		p.llm = &fakeLLM{answer: "ok"}
	}
	return NewService(
		p.docs, p.convs, p.msgs, p.indexer, p.retriever,
		testAssembler(), pipeline.NewGenerator(p.llm, log), p.llm, 10, log,
	)
}

func processedDoc() *models.Document {
	return &models.Document{
		ID:      "doc-1",
		UserID:  "u1",
		Title:   "t",
		Content: "some document content",
		Status:  models.StatusProcessed,
	}
}

func TestProcessConcurrentClaimsExactlyOneWins(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", UserID: "u1", Content: "text", Status: models.StatusUnprocessed},
	}}
	indexer := &fakeIndexer{
		count:   3,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	llmClient := &fakeLLM{answer: "summary"}
	svc := newTestService(serviceParts{docs: docs, indexer: indexer, llm: llmClient})

	firstErr := make(chan error, 1)
	go func() {
		_, _, err := svc.Process(context.Background(), "u1", "doc-1")
		firstErr <- err
	}()

	// Wait until the first call holds the claim, then race a second call
	// against it.
	<-indexer.started
	_, _, err := svc.Process(context.Background(), "u1", "doc-1")
	if !errors.Is(err, ErrProcessingConflict) {
		t.Fatalf("second claim err = %v, want ErrProcessingConflict", err)
	}

	close(indexer.release)
	if err := <-firstErr; err != nil {
		t.Fatalf("first claim err = %v", err)
	}
	if indexer.runs != 1 {
		t.Errorf("indexer ran %d times, want 1", indexer.runs)
	}
	if docs.docs["doc-1"].Status != models.StatusProcessed {
		t.Errorf("final status = %q, want processed", docs.docs["doc-1"].Status)
	}
}

func TestProcessIndexingFailureMarksFailed(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", UserID: "u1", Content: "text", Status: models.StatusUnprocessed},
	}}
	wantErr := errors.New("embedding service down")
	svc := newTestService(serviceParts{docs: docs, indexer: &fakeIndexer{err: wantErr}})

	_, _, err := svc.Process(context.Background(), "u1", "doc-1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if docs.docs["doc-1"].Status != models.StatusFailed {
		t.Errorf("status = %q, want failed", docs.docs["doc-1"].Status)
	}
}

// cancelingIndexer cancels the request context mid-run, as a client
// disconnect does, then fails with the context error.
type cancelingIndexer struct {
	cancel context.CancelFunc
}

func (f *cancelingIndexer) Run(ctx context.Context, doc *models.Document) (int, error) {
	f.cancel()
	return 0, ctx.Err()
}

func TestProcessCanceledRunStillMarksFailed(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", UserID: "u1", Content: "text", Status: models.StatusUnprocessed},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newTestService(serviceParts{docs: docs, indexer: &cancelingIndexer{cancel: cancel}})

	if _, _, err := svc.Process(ctx, "u1", "doc-1"); err == nil {
		t.Fatal("expected an error from the canceled run")
	}
	if got := docs.docs["doc-1"].Status; got != models.StatusFailed {
		t.Fatalf("status after canceled run = %q, want failed", got)
	}

	// The failed claim must be reclaimable on a fresh request.
	retry := newTestService(serviceParts{docs: docs, indexer: &fakeIndexer{count: 1}, llm: &fakeLLM{answer: "summary"}})
	count, _, err := retry.Process(context.Background(), "u1", "doc-1")
	if err != nil {
		t.Fatalf("retry after canceled run: %v", err)
	}
	if count != 1 {
		t.Errorf("retry count = %d, want 1", count)
	}
	if docs.docs["doc-1"].Status != models.StatusProcessed {
		t.Errorf("status after retry = %q, want processed", docs.docs["doc-1"].Status)
	}
}

func TestProcessFailedDocumentCanBeRetried(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", UserID: "u1", Content: "text", Status: models.StatusFailed},
	}}
	svc := newTestService(serviceParts{docs: docs, indexer: &fakeIndexer{count: 2}, llm: &fakeLLM{answer: "summary"}})

	count, _, err := svc.Process(context.Background(), "u1", "doc-1")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if docs.docs["doc-1"].Status != models.StatusProcessed {
		t.Errorf("status = %q, want processed", docs.docs["doc-1"].Status)
	}
}

func TestProcessEmptyDocument(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", UserID: "u1", Content: "", Status: models.StatusUnprocessed},
	}}
	svc := newTestService(serviceParts{docs: docs})

	_, _, err := svc.Process(context.Background(), "u1", "doc-1")
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
	if docs.docs["doc-1"].Status != models.StatusUnprocessed {
		t.Errorf("status changed to %q on an empty document", docs.docs["doc-1"].Status)
	}
}

func TestProcessSummaryFailureStillProcessed(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", UserID: "u1", Content: "text", Status: models.StatusUnprocessed},
	}}
	svc := newTestService(serviceParts{
		docs:    docs,
		indexer: &fakeIndexer{count: 1},
		llm:     &fakeLLM{err: errors.New("completion down")},
	})

	_, summary, err := svc.Process(context.Background(), "u1", "doc-1")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if summary != "" {
		t.Errorf("summary = %q, want empty on completion failure", summary)
	}
	if docs.docs["doc-1"].Status != models.StatusProcessed {
		t.Errorf("status = %q, want processed despite summary failure", docs.docs["doc-1"].Status)
	}
}

func TestProcessOtherOwnersDocument(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", UserID: "u1", Content: "text"},
	}}
	svc := newTestService(serviceParts{docs: docs})

	if _, _, err := svc.Process(context.Background(), "intruder", "doc-1"); err == nil {
		t.Fatal("expected an error for a document owned by someone else")
	}
}

func TestAskNoDocumentBound(t *testing.T) {
	convs := &fakeConversations{convs: map[string]*models.Conversation{
		"conv-1": {ID: "conv-1", UserID: "u1"},
	}}
	svc := newTestService(serviceParts{convs: convs})

	_, err := svc.Ask(context.Background(), "u1", "conv-1", "q")
	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("err = %v, want ErrNoDocument", err)
	}
}

func TestAskDocumentNotReady(t *testing.T) {
	for _, status := range []models.DocumentStatus{
		models.StatusUnprocessed, models.StatusProcessing, models.StatusFailed,
	} {
		docs := &fakeDocuments{docs: map[string]*models.Document{
			"doc-1": {ID: "doc-1", UserID: "u1", Content: "text", Status: status},
		}}
		convs := &fakeConversations{convs: map[string]*models.Conversation{
			"conv-1": {ID: "conv-1", UserID: "u1", DocumentID: "doc-1"},
		}}
		msgs := &fakeMessages{}
		svc := newTestService(serviceParts{docs: docs, convs: convs, msgs: msgs})

		_, err := svc.Ask(context.Background(), "u1", "conv-1", "q")
		if !errors.Is(err, ErrNotReady) {
			t.Errorf("status %q: err = %v, want ErrNotReady", status, err)
		}
		if len(msgs.appended) != 0 {
			t.Errorf("status %q: %d messages persisted before readiness check", status, len(msgs.appended))
		}
	}
}

func TestAskEmptyRetrievalGivesFixedAnswer(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{"doc-1": processedDoc()}}
	convs := &fakeConversations{convs: map[string]*models.Conversation{
		"conv-1": {ID: "conv-1", UserID: "u1", DocumentID: "doc-1"},
	}}
	msgs := &fakeMessages{}
	llmClient := &fakeLLM{answer: "should not be called"}
	svc := newTestService(serviceParts{docs: docs, convs: convs, msgs: msgs, retriever: &fakeRetriever{}, llm: llmClient})

	reply, err := svc.Ask(context.Background(), "u1", "conv-1", "q")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply.Content != pipeline.InsufficientAnswer {
		t.Errorf("answer = %q, want the fixed insufficient-information answer", reply.Content)
	}
	if llmClient.calls != 0 {
		t.Errorf("completion service called %d times, want 0", llmClient.calls)
	}
	if len(msgs.appended) != 2 {
		t.Errorf("%d messages persisted, want the question and the fixed answer", len(msgs.appended))
	}
}

func TestAskHappyPathPersistsBothTurns(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{"doc-1": processedDoc()}}
	convs := &fakeConversations{convs: map[string]*models.Conversation{
		"conv-1": {ID: "conv-1", UserID: "u1", DocumentID: "doc-1"},
	}}
	msgs := &fakeMessages{history: []models.Message{
		{Role: models.RoleUser, Content: "earlier question"},
		{Role: models.RoleAssistant, Content: "earlier answer"},
	}}
	retriever := &fakeRetriever{chunks: []schema.Chunk{
		{ID: "c1", DocumentID: "doc-1", Index: 0, Text: "relevant text"},
	}}
	svc := newTestService(serviceParts{
		docs: docs, convs: convs, msgs: msgs, retriever: retriever,
		llm: &fakeLLM{answer: "grounded answer"},
	})

	reply, err := svc.Ask(context.Background(), "u1", "conv-1", "what does it say?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply.Role != models.RoleAssistant || reply.Content != "grounded answer" {
		t.Errorf("reply = %+v", reply)
	}
	if len(msgs.appended) != 2 {
		t.Fatalf("%d messages persisted, want 2", len(msgs.appended))
	}
	if msgs.appended[0].Role != models.RoleUser || msgs.appended[0].Content != "what does it say?" {
		t.Errorf("first persisted message = %+v, want the user question", msgs.appended[0])
	}
	if msgs.appended[1].Content != "grounded answer" {
		t.Errorf("second persisted message = %+v, want the assistant answer", msgs.appended[1])
	}
	if len(convs.touched) != 1 {
		t.Errorf("conversation touched %d times, want 1", len(convs.touched))
	}
}

func TestAskRetrievalFailureStillRecordsQuestion(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*models.Document{"doc-1": processedDoc()}}
	convs := &fakeConversations{convs: map[string]*models.Conversation{
		"conv-1": {ID: "conv-1", UserID: "u1", DocumentID: "doc-1"},
	}}
	msgs := &fakeMessages{}
	wantErr := errors.New("vector index unavailable")
	svc := newTestService(serviceParts{docs: docs, convs: convs, msgs: msgs, retriever: &fakeRetriever{err: wantErr}})

	_, err := svc.Ask(context.Background(), "u1", "conv-1", "q")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(msgs.appended) != 1 || msgs.appended[0].Role != models.RoleUser {
		t.Errorf("persisted = %+v, want only the user question", msgs.appended)
	}
}
