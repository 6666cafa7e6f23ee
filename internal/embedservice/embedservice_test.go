package embedservice

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	dims  int
	err   error
	calls [][]string
}

func (e *fakeEngine) Dimensions() int { return e.dims }
func (e *fakeEngine) Close() error    { return nil }

func (e *fakeEngine) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 1}
	}
	return out, nil
}

func TestEmbedNormalizesToUnitLength(t *testing.T) {
	svc := New(&fakeEngine{dims: 3}, DefaultConfig)

	results, warnings, err := svc.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, results, 1)

	var sumSq float64
	for _, x := range results[0].Vector {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}

func TestEmbedSkipsEmptyInputsWithWarning(t *testing.T) {
	svc := New(&fakeEngine{dims: 3}, DefaultConfig)

	results, warnings, err := svc.Embed(context.Background(), []string{"a", "", "b"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Index)

	// "b" is the third input (index 2), not the second result's position
	// (1), once the empty second input drops out of results.
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 2, results[1].Index)
}

func TestEmbedEmptyBatchNoEngineCall(t *testing.T) {
	eng := &fakeEngine{dims: 3}
	svc := New(eng, DefaultConfig)

	results, warnings, err := svc.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, warnings)
	assert.Empty(t, eng.calls)
}

func TestEmbedRespectsMaxBatchSize(t *testing.T) {
	eng := &fakeEngine{dims: 3}
	svc := New(eng, Config{MaxBatchSize: 2})

	_, _, err := svc.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	require.Len(t, eng.calls, 3)
	assert.Len(t, eng.calls[0], 2)
	assert.Len(t, eng.calls[1], 2)
	assert.Len(t, eng.calls[2], 1)
}

func TestEmbedBatchFailureRecordsWarningsNotError(t *testing.T) {
	eng := &fakeEngine{dims: 3, err: errors.New("decode failed")}
	svc := New(eng, DefaultConfig)

	results, warnings, err := svc.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, results)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Message, "decode failed")
}

func TestHashDeterministicAndSensitiveToVector(t *testing.T) {
	v1 := normalize([]float32{1, 2, 3})
	v2 := normalize([]float32{1, 2, 3})
	v3 := normalize([]float32{3, 2, 1})

	assert.Equal(t, hash(v1), hash(v2))
	assert.NotEqual(t, hash(v1), hash(v3))
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	assert.Equal(t, v, normalize(v))
}
