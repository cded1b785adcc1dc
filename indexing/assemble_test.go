package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/semindex/core"
)

func TestAssembler_EnumerationOrder(t *testing.T) {
	a := NewAssembler()
	a.Expect("a", 1)
	a.Carry("b", []core.IndexEntry{entry("b", 0, 1), entry("b", 1, 1)})
	a.Expect("c", 0)
	a.Expect("d", 2)

	require.NoError(t, a.Fill([]core.IndexEntry{entry("a", 0, 5), entry("d", 0, 5), entry("d", 1, 5)}))

	entries, err := a.Entries()
	require.NoError(t, err)

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a#para-0", "b#para-0", "b#para-1", "d#para-0", "d#para-1"}, ids)
	assert.Equal(t, 4, a.Documents())
}

func TestAssembler_Empty(t *testing.T) {
	entries, err := NewAssembler().Entries()
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestAssembler_FillMismatch(t *testing.T) {
	t.Run("too few", func(t *testing.T) {
		a := NewAssembler()
		a.Expect("a", 2)
		assert.ErrorIs(t, a.Fill([]core.IndexEntry{entry("a", 0, 1)}), ErrAssembly)
	})

	t.Run("too many", func(t *testing.T) {
		a := NewAssembler()
		a.Expect("a", 1)
		assert.ErrorIs(t, a.Fill([]core.IndexEntry{entry("a", 0, 1), entry("a", 1, 1)}), ErrAssembly)
	})

	t.Run("wrong slug", func(t *testing.T) {
		a := NewAssembler()
		a.Expect("a", 1)
		assert.ErrorIs(t, a.Fill([]core.IndexEntry{entry("b", 0, 1)}), ErrAssembly)
	})

	t.Run("unfilled expectations", func(t *testing.T) {
		a := NewAssembler()
		a.Expect("a", 1)
		_, err := a.Entries()
		assert.ErrorIs(t, err, ErrAssembly)
	})
}

func TestAssembler_DimensionMismatch(t *testing.T) {
	a := NewAssembler()
	a.Carry("a", []core.IndexEntry{entry("a", 0, 1)})
	wide := entry("b", 0, 1)
	wide.Vector = []float32{1, 0, 0}
	a.Carry("b", []core.IndexEntry{wide})

	_, err := a.Entries()
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}
