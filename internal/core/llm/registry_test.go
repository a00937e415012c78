package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Slidewise/internal/core"
)

type namedProvider string

func (n namedProvider) Name() string { return string(n) }

func (n namedProvider) Generate(context.Context, string, string) (string, error) {
	return string(n), nil
}

func TestRegistryPick(t *testing.T) {
	r := NewRegistry("Groq", namedProvider("groq"), namedProvider("claude"))

	p, err := r.Pick("claude")
	require.NoError(t, err)
	assert.Equal(t, "claude", p.Name())

	p, err = r.Pick(" CLAUDE ")
	require.NoError(t, err)
	assert.Equal(t, "claude", p.Name())

	p, err = r.Pick("gemini")
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name(), "unconfigured name falls back to the default")

	p, err = r.Pick("")
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())
}

func TestRegistryPickWithoutDefault(t *testing.T) {
	r := NewRegistry("openai", namedProvider("gemini"), namedProvider("claude"))
	p, err := r.Pick("")
	require.NoError(t, err)
	assert.Equal(t, "claude", p.Name(), "first configured provider by name")
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry("groq")
	_, err := r.Pick("groq")
	assert.ErrorIs(t, err, core.ErrNoAIProvider)
	assert.Empty(t, r.Names())
}
