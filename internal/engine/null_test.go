package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullEmbeddingEngineDeterministic(t *testing.T) {
	e := NewNullEmbeddingEngine(8)

	v1, err := e.Embed(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), []string{"hello world"})
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1[0], 8)
}

func TestNullEmbeddingEngineDiffersByText(t *testing.T) {
	e := NewNullEmbeddingEngine(8)

	v, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)

	assert.NotEqual(t, v[0], v[1])
}

func TestNullEmbeddingEngineBatchOrder(t *testing.T) {
	e := NewNullEmbeddingEngine(4)

	texts := []string{"one", "two", "three"}
	v, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, v, 3)

	for i, text := range texts {
		single, err := e.Embed(context.Background(), []string{text})
		require.NoError(t, err)
		assert.Equal(t, single[0], v[i])
	}
}

func TestNullChatEngineTruncatesToMaxTokens(t *testing.T) {
	e := NewNullChatEngine()

	out, err := e.Generate(context.Background(), "one two three four five", 2)
	require.NoError(t, err)
	assert.Equal(t, "one two", out)
}

func TestNullChatEngineNoLimit(t *testing.T) {
	e := NewNullChatEngine()

	out, err := e.Generate(context.Background(), "one two three", 0)
	require.NoError(t, err)
	assert.Equal(t, "one two three", out)
}
