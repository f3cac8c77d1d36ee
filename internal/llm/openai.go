package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI is a chat-completion client for the OpenAI API.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAI creates a chat client. maxTokens caps the completion length and
// temperature controls sampling; both are fixed per deployment, not per
// request.
func NewOpenAI(apiKey, model string, maxTokens int, temperature float32) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Chat sends one chat-completion request and returns the answer text.
func (o *OpenAI) Chat(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   o.maxTokens,
		Temperature: &o.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Err: fmt.Errorf("no choices returned")}
	}

	return resp.Choices[0].Message.Content, nil
}

var _ Client = (*OpenAI)(nil)
