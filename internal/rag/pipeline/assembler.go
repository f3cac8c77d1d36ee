package pipeline

import (
	"fmt"

	"docmind/internal/rag/schema"

	"github.com/pkoukk/tiktoken-go"
)

// Assembler builds the typed generation payload from retrieved chunks, the
// conversation history and the current question. It owns the two bounding
// rules: the history window (older turns are dropped) and the context token
// budget (lowest-relevance chunks are dropped whole). Chunk text is never
// altered; grounding claims are only checkable against verbatim text.
type Assembler struct {
	historyWindow int
	contextTokens int
	countTokens   func(string) int
}

// NewAssembler creates an Assembler. Token counting uses the cl100k_base
// encoding, which matches the embedding and chat model family in use.
func NewAssembler(historyWindow, contextTokens int) (*Assembler, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &Assembler{
		historyWindow: historyWindow,
		contextTokens: contextTokens,
		countTokens: func(s string) int {
			return len(enc.Encode(s, nil, nil))
		},
	}, nil
}

// NewAssemblerWithCounter creates an Assembler with a caller-supplied token
// counter instead of the tiktoken encoding.
func NewAssemblerWithCounter(historyWindow, contextTokens int, countTokens func(string) int) *Assembler {
	return &Assembler{
		historyWindow: historyWindow,
		contextTokens: contextTokens,
		countTokens:   countTokens,
	}
}

// Assemble produces the generation request. chunks must be in relevance
// order (most relevant first); history must be in creation order.
func (a *Assembler) Assemble(chunks []schema.Chunk, history []schema.Turn, question string) *schema.GenerationRequest {
	req := &schema.GenerationRequest{
		Question: question,
	}

	// Keep chunks in relevance order until the token budget runs out. The
	// top chunk is always kept, even if it alone exceeds the budget:
	// answering from one oversized chunk beats answering from nothing.
	total := 0
	for i, c := range chunks {
		n := a.countTokens(c.Text)
		if i > 0 && total+n > a.contextTokens {
			break
		}
		req.Context = append(req.Context, c)
		total += n
	}

	// Most recent turns only, oldest first within the retained window.
	if len(history) > a.historyWindow {
		history = history[len(history)-a.historyWindow:]
	}
	req.History = append(req.History, history...)

	return req
}
