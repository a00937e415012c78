package core

import "context"

// LLMProvider turns a system and user prompt into a completion.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	Name() string
}
