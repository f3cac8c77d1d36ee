package rag

import (
	"context"
	"errors"
	"fmt"

	"docmind/internal/llm"
	"docmind/internal/models"
	"docmind/internal/rag/pipeline"
	"docmind/internal/rag/schema"
	"docmind/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrProcessingConflict is returned when a document is already being
	// processed by another request.
	ErrProcessingConflict = errors.New("document is already being processed")
	// ErrNotReady is returned when chat targets a document that has not
	// finished processing.
	ErrNotReady = errors.New("document is not processed yet")
	// ErrNoDocument is returned when chat targets a conversation with no
	// document bound to it.
	ErrNoDocument = errors.New("conversation has no document")
	// ErrEmptyDocument is returned when processing a document without text.
	ErrEmptyDocument = errors.New("document has no content")
)

// summaryPrompt asks for a short factual summary; it runs on a bounded
// prefix of the document so arbitrarily large uploads cost the same.
const summaryPrompt = "Summarize the following document in 3 sentences or less. Be factual and concise.\n\n%s"

// summaryPrefixChars bounds how much document text the summary call sees.
const summaryPrefixChars = 3000

// DocumentStore is the document persistence the service depends on.
type DocumentStore interface {
	GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error)
	TryMarkProcessing(ctx context.Context, ownerID, id string) (bool, error)
	FinishProcessing(ctx context.Context, id string, status models.DocumentStatus, summary string) error
}

// ConversationStore is the conversation persistence the service depends on.
type ConversationStore interface {
	GetConversation(ctx context.Context, ownerID, id string) (*models.Conversation, error)
	TouchConversation(ctx context.Context, id string) error
}

// MessageStore is the message persistence the service depends on.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *models.Message) error
	RecentMessages(ctx context.Context, conversationID string, n int) ([]models.Message, error)
}

// DocumentIndexer chunks, embeds and stores a document's chunk set.
type DocumentIndexer interface {
	Run(ctx context.Context, doc *models.Document) (int, error)
}

// ChunkRetriever finds the chunks most relevant to a question.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, ownerID, documentID, question string) ([]schema.Chunk, error)
}

// Service orchestrates the two top-level operations: processing a document
// into a queryable index, and answering a question against one.
type Service struct {
	documents     DocumentStore
	conversations ConversationStore
	messages      MessageStore
	indexer       DocumentIndexer
	retriever     ChunkRetriever
	assembler     *pipeline.Assembler
	generator     *pipeline.Generator
	llm           llm.Client
	historyWindow int
	log           *logger.Logger
}

// NewService creates a Service.
func NewService(
	documents DocumentStore,
	conversations ConversationStore,
	messages MessageStore,
	indexer DocumentIndexer,
	retriever ChunkRetriever,
	assembler *pipeline.Assembler,
	generator *pipeline.Generator,
	llmClient llm.Client,
	historyWindow int,
	log *logger.Logger,
) *Service {
	return &Service{
		documents:     documents,
		conversations: conversations,
		messages:      messages,
		indexer:       indexer,
		retriever:     retriever,
		assembler:     assembler,
		generator:     generator,
		llm:           llmClient,
		historyWindow: historyWindow,
		log:           log,
	}
}

// Process runs the indexing pipeline for one of the owner's documents and
// returns the resulting chunk count and summary. Concurrent calls for the
// same document are serialized by a status claim in the database: exactly one
// caller runs the pipeline, the rest get ErrProcessingConflict. Any pipeline
// failure lands the document in the failed status, from which Process may be
// called again.
func (s *Service) Process(ctx context.Context, ownerID, documentID string) (int, string, error) {
	doc, err := s.documents.GetDocument(ctx, ownerID, documentID)
	if err != nil {
		return 0, "", err
	}
	if doc.Content == "" {
		return 0, "", ErrEmptyDocument
	}

	claimed, err := s.documents.TryMarkProcessing(ctx, ownerID, documentID)
	if err != nil {
		return 0, "", err
	}
	if !claimed {
		return 0, "", ErrProcessingConflict
	}

	log := s.log.WithUser(ownerID).WithField("document_id", documentID)
	log.Info("Processing document")

	count, err := s.indexer.Run(ctx, doc)
	if err != nil {
		log.Error(fmt.Sprintf("Indexing failed: %v", err))
		// The run may have failed because ctx itself was canceled; the
		// failure status must still land or the document stays claimed as
		// processing and every retry is rejected.
		if markErr := s.documents.FinishProcessing(context.WithoutCancel(ctx), documentID, models.StatusFailed, ""); markErr != nil {
			log.Error(fmt.Sprintf("Failed to record failed status: %v", markErr))
		}
		return 0, "", err
	}

	// Summary generation is best-effort: the document is queryable without
	// one, so a completion failure must not fail the processing run.
	summary := s.generateSummary(ctx, doc)

	if err := s.documents.FinishProcessing(ctx, documentID, models.StatusProcessed, summary); err != nil {
		return 0, "", err
	}
	log.Info(fmt.Sprintf("Document processed into %d chunks", count))
	return count, summary, nil
}

// Ask answers a question inside a conversation, grounded in the
// conversation's document. Both the question and the answer are persisted as
// conversation turns; the question is recorded even when generation fails, so
// the transcript reflects what the user actually asked.
func (s *Service) Ask(ctx context.Context, ownerID, conversationID, question string) (*models.Message, error) {
	conv, err := s.conversations.GetConversation(ctx, ownerID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.DocumentID == "" {
		return nil, ErrNoDocument
	}

	doc, err := s.documents.GetDocument(ctx, ownerID, conv.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.StatusProcessed {
		return nil, ErrNotReady
	}

	// History is read before the new question is appended, so the current
	// question appears exactly once in the prompt.
	recent, err := s.messages.RecentMessages(ctx, conversationID, s.historyWindow)
	if err != nil {
		return nil, err
	}
	history := make([]schema.Turn, len(recent))
	for i, m := range recent {
		history[i] = schema.Turn{Role: m.Role, Text: m.Content}
	}

	userMsg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           models.RoleUser,
		Content:        question,
	}
	if err := s.messages.AppendMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	chunks, err := s.retriever.Retrieve(ctx, ownerID, conv.DocumentID, question)
	if err != nil {
		return nil, err
	}

	req := s.assembler.Assemble(chunks, history, question)
	answer, err := s.generator.Answer(ctx, req)
	if err != nil {
		return nil, err
	}

	assistantMsg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        answer,
	}
	if err := s.messages.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	if err := s.conversations.TouchConversation(ctx, conversationID); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to touch conversation %s: %v", conversationID, err))
	}

	return assistantMsg, nil
}

// generateSummary asks the completion service for a short summary of the
// document. Failures degrade to an empty summary.
func (s *Service) generateSummary(ctx context.Context, doc *models.Document) string {
	content := doc.Content
	if len(content) > summaryPrefixChars {
		content = content[:summaryPrefixChars]
	}
	summary, err := s.llm.Chat(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: fmt.Sprintf(summaryPrompt, content)},
	})
	if err != nil {
		s.log.Warn(fmt.Sprintf("Summary generation failed for document %s: %v", doc.ID, err))
		return ""
	}
	return summary
}
