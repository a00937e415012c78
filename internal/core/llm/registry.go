// Package llm holds the language model providers used for outline generation.
package llm

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
)

// Provider names accepted as ai_provider.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

const (
	temperature = 0.7
	maxTokens   = 2000
)

// Registry picks a configured provider by name.
type Registry struct {
	providers   map[string]core.LLMProvider
	defaultName string
}

// NewRegistry indexes providers by Name. defaultName is used when a request
// names no provider or one that isn't configured.
func NewRegistry(defaultName string, providers ...core.LLMProvider) *Registry {
	r := &Registry{
		providers:   make(map[string]core.LLMProvider, len(providers)),
		defaultName: strings.ToLower(strings.TrimSpace(defaultName)),
	}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// NewRegistryFromConfig builds a provider for every configured API key.
func NewRegistryFromConfig(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Registry, error) {
	var providers []core.LLMProvider
	if cfg.GroqAPIKey != "" {
		p, err := NewOpenAILLM(ProviderGroq, cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if cfg.OpenAIAPIKey != "" {
		p, err := NewOpenAILLM(ProviderOpenAI, cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if cfg.GeminiAPIKey != "" {
		p, err := NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize gemini: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.ClaudeAPIKey != "" {
		p, err := NewClaudeLLM(ClaudeConfig{
			APIKey:  cfg.ClaudeAPIKey,
			BaseURL: cfg.ClaudeBaseURL,
			Model:   cfg.ClaudeModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	r := NewRegistry(cfg.DefaultAIProvider, providers...)
	if len(providers) == 0 {
		log.Warn().Msg("no AI provider configured; generation will fail")
	} else {
		log.Info().Strs("providers", r.Names()).Str("default", r.defaultName).Msg("AI providers ready")
	}
	return r, nil
}

// Pick returns the provider called name, else the default, else any
// configured provider in name order.
func (r *Registry) Pick(name string) (core.LLMProvider, error) {
	if p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	if p, ok := r.providers[r.defaultName]; ok {
		return p, nil
	}
	names := r.Names()
	if len(names) == 0 {
		return nil, core.ErrNoAIProvider
	}
	return r.providers[names[0]], nil
}

// Names lists the configured providers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close releases providers that hold connections.
func (r *Registry) Close() error {
	for _, p := range r.providers {
		if c, ok := p.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return nil
}
