package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/markdave123-py/Slidewise/internal/core"
)

// OpenAILLM talks to any OpenAI compatible chat completions API. Groq is
// served by the same client with its own base URL.
type OpenAILLM struct {
	name   string
	model  string
	client openai.Client
}

func NewOpenAILLM(name, apiKey, model, baseURL string) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: API key is required", name)
	}
	if model == "" {
		return nil, fmt.Errorf("%s: model is required", name)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAILLM{name: name, model: model, client: openai.NewClient(opts...)}, nil
}

func (o *OpenAILLM) Name() string { return o.name }

func (o *OpenAILLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(userPrompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(o.name + ": empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ core.LLMProvider = (*OpenAILLM)(nil)
