package llm

import (
	"context"
	"fmt"
)

// Message roles for chat-completion requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat-completion request.
type Message struct {
	Role    string
	Content string
}

// Client is the contract for a chat-completion model. One call per request;
// any iteration or fallback policy belongs to the caller.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ServiceError reports a failure of the external completion service.
// The caller decides on user-facing fallback messaging; retrying here could
// silently duplicate generation cost.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
