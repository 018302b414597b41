package llm

import (
	"context"
	"encoding/json"
)

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Client is the invocation boundary shared by every AI-calling pipeline
// stage. When schema is non-nil the backend is asked for a JSON response
// matching it; the raw response text comes back for the caller to decode.
type Client interface {
	Invoke(ctx context.Context, model, system, prompt string, schema json.RawMessage) (string, Usage, error)
}

// URLAnalyzer is an optional capability: the backend fetches and reasons
// about a live URL itself instead of receiving body text. Only some
// backends implement it.
type URLAnalyzer interface {
	AnalyzeURL(ctx context.Context, model, system, prompt string, schema json.RawMessage) (string, Usage, error)
	HasCredential() bool
}
