package llm

import "context"

// Request is a single completion request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Client abstracts the text-generation backend controllers talk to.
// Implementations must classify their failures through the
// transient/permanent error wrappers in internal/models so the retry
// invoker can tell what is worth another attempt.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
