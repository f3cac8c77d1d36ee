package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

const (
	maxAttempts  = 3
	initialDelay = 500 * time.Millisecond
)

// OpenAIClient produces embeddings through the OpenAI API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	dim    int
}

// NewOpenAIClient creates an embedding client for the given model.
// dim is the dimension the model produces (1536 for text-embedding-3-small);
// responses of any other dimension are rejected rather than stored.
func NewOpenAIClient(apiKey, model string, dim int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dim:    dim,
	}
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Dim() int { return c.dim }

// Embed generates the embedding vector for a single text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts, in input
// order. Transient upstream failures are retried up to maxAttempts with a
// doubling delay; terminal failures surface immediately.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Newlines degrade embedding quality for this model family.
	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = strings.ReplaceAll(t, "\n", " ")
	}

	req := openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(c.model),
	}

	var resp openai.EmbeddingResponse
	var err error
	delay := initialDelay
	for attempt := 1; ; attempt++ {
		resp, err = c.client.CreateEmbeddings(ctx, req)
		if err == nil {
			break
		}
		if attempt >= maxAttempts || !isTransient(err) {
			return nil, &ServiceError{Transient: isTransient(err), Err: err}
		}
		select {
		case <-ctx.Done():
			return nil, &ServiceError{Transient: true, Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}

	if len(resp.Data) != len(texts) {
		return nil, &ServiceError{Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))}
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != c.dim {
			return nil, &ServiceError{Err: fmt.Errorf("embedding dimension %d, expected %d", len(d.Embedding), c.dim)}
		}
		vectors[i] = d.Embedding
	}

	return vectors, nil
}

// isTransient classifies upstream failures. Rate limits, upstream 5xx and
// plain transport errors are worth retrying; auth and validation errors are
// not.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	// No structured status: assume a transport-level failure.
	return true
}

var _ Client = (*OpenAIClient)(nil)
