// Package outline turns a topic and its gathered context into a slide outline
// using whichever language model provider is configured.
package outline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/core/llm"
	"github.com/markdave123-py/Slidewise/internal/models"
)

// Request is one outline generation.
type Request struct {
	Topic    string
	Context  string
	Slides   int
	Provider string // optional provider name; empty picks the default
}

// Generator asks a language model for an outline.
type Generator struct {
	registry *llm.Registry
	timeout  time.Duration
	log      zerolog.Logger
}

func NewGenerator(registry *llm.Registry, timeout time.Duration, log zerolog.Logger) *Generator {
	return &Generator{
		registry: registry,
		timeout:  timeout,
		log:      log.With().Str("component", "outline").Logger(),
	}
}

// Generate returns an outline with exactly req.Slides slides. It fails with
// core.ErrNoAIProvider when no model is configured and with
// core.ErrGenerationFailed when the model call or its reply is unusable; the
// caller decides whether to substitute Fallback.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.Outline, error) {
	if req.Slides <= 0 {
		return nil, fmt.Errorf("%w: slide count must be positive", core.ErrValidation)
	}
	provider, err := g.registry.Pick(req.Provider)
	if err != nil {
		return nil, err
	}

	topic := req.Topic
	if c := strings.TrimSpace(req.Context); c != "" {
		topic = fmt.Sprintf("%s\n\nContext:\n%s", req.Topic, c)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.log.Info().Str("provider", provider.Name()).Int("slides", req.Slides).Msg("generating outline")
	reply, err := provider.Generate(callCtx, systemPrompt, buildUserPrompt(topic, req.Slides))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrGenerationFailed, provider.Name(), err)
	}

	o, err := ParseOutline(reply, req.Topic, req.Slides)
	if err != nil {
		g.log.Debug().Str("provider", provider.Name()).Str("reply", reply).Msg("unparseable outline reply")
		return nil, err
	}
	return o, nil
}
