package outline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/core/llm"
)

type fakeProvider struct {
	name  string
	reply string
	err   error

	system, user string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func newGenerator(providers ...core.LLMProvider) *Generator {
	return NewGenerator(llm.NewRegistry("groq", providers...), time.Second, zerolog.Nop())
}

func TestGeneratePassesContext(t *testing.T) {
	p := &fakeProvider{name: "groq", reply: `{"title":"Tides","slides":[{"title":"Moon","content":["pull"]}]}`}
	g := newGenerator(p)

	o, err := g.Generate(context.Background(), Request{Topic: "Tides", Context: "The moon pulls water.", Slides: 1})
	require.NoError(t, err)
	assert.Equal(t, "Moon", o.Slides[0].Title)
	assert.Equal(t, systemPrompt, p.system)
	assert.Contains(t, p.user, "Tides\n\nContext:\nThe moon pulls water.")
	assert.Contains(t, p.user, "Generate exactly 1 slides")
}

func TestGenerateWithoutContext(t *testing.T) {
	p := &fakeProvider{name: "groq", reply: `{"title":"T","slides":[{"title":"A"}]}`}
	_, err := newGenerator(p).Generate(context.Background(), Request{Topic: "Tides", Slides: 1})
	require.NoError(t, err)
	assert.False(t, strings.Contains(p.user, "Context:"))
}

func TestGenerateSelectsProvider(t *testing.T) {
	groq := &fakeProvider{name: "groq", reply: `{"slides":[{"title":"from groq"}]}`}
	claude := &fakeProvider{name: "claude", reply: `{"slides":[{"title":"from claude"}]}`}
	g := newGenerator(groq, claude)

	o, err := g.Generate(context.Background(), Request{Topic: "x", Slides: 1, Provider: "claude"})
	require.NoError(t, err)
	assert.Equal(t, "from claude", o.Slides[0].Title)
}

func TestGenerateErrors(t *testing.T) {
	_, err := newGenerator().Generate(context.Background(), Request{Topic: "x", Slides: 3})
	assert.ErrorIs(t, err, core.ErrNoAIProvider)

	failing := &fakeProvider{name: "groq", err: errors.New("connection reset")}
	_, err = newGenerator(failing).Generate(context.Background(), Request{Topic: "x", Slides: 3})
	assert.ErrorIs(t, err, core.ErrGenerationFailed)

	garbage := &fakeProvider{name: "groq", reply: "no idea"}
	_, err = newGenerator(garbage).Generate(context.Background(), Request{Topic: "x", Slides: 3})
	assert.ErrorIs(t, err, core.ErrGenerationFailed)

	_, err = newGenerator(garbage).Generate(context.Background(), Request{Topic: "x", Slides: 0})
	assert.ErrorIs(t, err, core.ErrValidation)
}
