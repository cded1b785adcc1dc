package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIsDeterministicUnitLength(t *testing.T) {
	a := Vector("hello world", 64)
	b := Vector("hello world", 64)
	c := Vector("goodbye", 64)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedderRecordsCalls(t *testing.T) {
	m := NewMockEmbedder().WithDimensions(3)

	vectors, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 3)

	_, err = m.EmbedText(context.Background(), "c")
	require.NoError(t, err)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, []string{"a", "b", "c"}, m.Texts())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	assert.Empty(t, m.Calls())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProviderWithEmbedder(NewMockEmbedder().WithDimensions(12)).WithModel("tiny")

	assert.Equal(t, 12, p.Dimensions())
	assert.Equal(t, "tiny", p.ModelName())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, p.CloseCount())
}
