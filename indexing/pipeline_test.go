package indexing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/semindex/ai/mock"
	"github.com/poiesic/semindex/core"
)

// memorySource serves documents from memory in insertion order.
type memorySource struct {
	order  []string
	docs   map[string]*core.Document
	errs   map[string]error
	listFn func() ([]string, error)
}

func newMemorySource() *memorySource {
	return &memorySource{docs: make(map[string]*core.Document), errs: make(map[string]error)}
}

func (m *memorySource) add(doc core.Document) *memorySource {
	if doc.Path == "" {
		doc.Path = doc.Slug + ".md"
	}
	m.order = append(m.order, doc.Path)
	m.docs[doc.Path] = &doc
	return m
}

func (m *memorySource) fail(path string, err error) *memorySource {
	m.order = append(m.order, path)
	m.errs[path] = err
	return m
}

func (m *memorySource) List(context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return append([]string(nil), m.order...), nil
}

func (m *memorySource) Load(_ context.Context, rel string) (*core.Document, error) {
	if err, ok := m.errs[rel]; ok {
		return nil, err
	}
	doc := *m.docs[rel]
	return &doc, nil
}

func para(slug string, i int) string {
	return fmt.Sprintf("Paragraph %d of %s has enough words to be kept as a fragment.", i, slug)
}

func body(slug string, n int) string {
	paras := make([]string, n)
	for i := range paras {
		paras[i] = para(slug, i)
	}
	return strings.Join(paras, "\n\n")
}

func doc(slug string, mtime int64, paragraphs int) core.Document {
	return core.Document{Slug: slug, Title: strings.ToUpper(slug), Description: "about " + slug, Mtime: mtime, Body: body(slug, paragraphs)}
}

func newTestPipeline(t *testing.T, src DocumentSource, embedder *mock.MockEmbedder, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithRetry(1, 0)}, opts...)
	p, err := NewPipeline(src, embedder, opts...)
	require.NoError(t, err)
	return p
}

func TestPipeline_FullBuild(t *testing.T) {
	src := newMemorySource().
		add(doc("a", 100, 2)).
		add(doc("b", 200, 3))
	embedder := mock.NewMockEmbedder().WithDimensions(16)

	result, err := newTestPipeline(t, src, embedder).Run(context.Background(), nil)
	require.NoError(t, err)

	ids := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		ids[i] = e.ID
		assert.Len(t, e.Vector, 16)
	}
	assert.Equal(t, []string{"a#para-0", "a#para-1", "b#para-0", "b#para-1", "b#para-2"}, ids)

	first := result.Entries[0]
	assert.Equal(t, "A", first.Title)
	assert.Equal(t, "about a", first.Description)
	assert.Equal(t, int64(100), first.Mtime)
	assert.Equal(t, mock.Vector("A. about a. "+para("a", 0), 16), first.Vector)

	assert.Equal(t, 2, result.Stats.Recomputed)
	assert.Equal(t, 5, result.Stats.Fragments)
	assert.Equal(t, 1, result.Stats.Batches)
}

func TestPipeline_IncrementalCarryForward(t *testing.T) {
	ctx := context.Background()
	e1 := core.IndexEntry{ID: "a#para-0", Slug: "a", Title: "A", Mtime: 100, Vector: []float32{1, 0, 0, 0}}
	e2 := core.IndexEntry{ID: "a#para-1", Slug: "a", Title: "A", Mtime: 100, Vector: []float32{0, 1, 0, 0}}
	prev := core.NewPreviousIndex([]core.IndexEntry{e1, e2})

	src := newMemorySource().
		add(doc("a", 100, 2)).
		add(doc("b", 200, 2))
	embedder := mock.NewMockEmbedder().WithDimensions(4)

	result, err := newTestPipeline(t, src, embedder).Run(ctx, prev)
	require.NoError(t, err)

	require.Len(t, result.Entries, 4)
	assert.Equal(t, e1, result.Entries[0])
	assert.Equal(t, e2, result.Entries[1])
	assert.Equal(t, "b#para-0", result.Entries[2].ID)
	assert.Equal(t, "b#para-1", result.Entries[3].ID)

	for _, text := range embedder.Texts() {
		assert.NotContains(t, text, "of a ", "provider must never see unchanged documents")
	}
	assert.Len(t, embedder.Texts(), 2)
	assert.Equal(t, 1, result.Stats.Skipped)
	assert.Equal(t, 2, result.Stats.Carried)
}

func TestPipeline_SkippedDocumentsKeepEnumerationOrder(t *testing.T) {
	ctx := context.Background()
	src := newMemorySource().
		add(doc("a", 1, 1)).
		add(doc("b", 2, 1)).
		add(doc("c", 3, 1))
	embedder := mock.NewMockEmbedder().WithDimensions(4)

	full, err := newTestPipeline(t, src, embedder).Run(ctx, nil)
	require.NoError(t, err)

	// Only the middle document changes
	src.docs["b.md"].Mtime = 20
	incremental, err := newTestPipeline(t, src, embedder).Run(ctx, core.NewPreviousIndex(full.Entries))
	require.NoError(t, err)

	require.Len(t, incremental.Entries, 3)
	assert.Equal(t, []string{"a#para-0", "b#para-0", "c#para-0"},
		[]string{incremental.Entries[0].ID, incremental.Entries[1].ID, incremental.Entries[2].ID})
	assert.Equal(t, int64(20), incremental.Entries[1].Mtime)
}

func TestPipeline_Deterministic(t *testing.T) {
	ctx := context.Background()
	src := newMemorySource().
		add(doc("a", 1, 3)).
		add(doc("b", 2, 20)).
		add(doc("c", 3, 17))

	first, err := newTestPipeline(t, src, mock.NewMockEmbedder()).Run(ctx, nil)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	second, err := newTestPipeline(t, src, embedder).Run(ctx, core.NewPreviousIndex(first.Entries))
	require.NoError(t, err)
	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, 0, embedder.CallCount(), "unchanged corpus needs no provider calls")

	rebuilt, err := newTestPipeline(t, src, mock.NewMockEmbedder(), WithMaxConcurrency(4), WithBatchSize(3)).Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Entries, rebuilt.Entries, "batching does not affect output")
}

func TestPipeline_DraftExclusion(t *testing.T) {
	ctx := context.Background()
	prev := core.NewPreviousIndex([]core.IndexEntry{
		{ID: "a#para-0", Slug: "a", Mtime: 100, Vector: []float32{1, 0}},
		{ID: "b#para-0", Slug: "b", Mtime: 100, Vector: []float32{0, 1}},
	})

	draft := doc("a", 100, 1)
	draft.Draft = true
	src := newMemorySource().add(draft).add(doc("b", 100, 1))

	result, err := newTestPipeline(t, src, mock.NewMockEmbedder().WithDimensions(2)).Run(ctx, prev)
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "b", result.Entries[0].Slug)
	assert.Equal(t, 1, result.Stats.Drafts)
	assert.Equal(t, 1, result.Stats.Purged)
}

func TestPipeline_ShortDocumentYieldsNoEntries(t *testing.T) {
	src := newMemorySource().add(core.Document{Slug: "tiny", Mtime: 1, Body: "0123456789"})
	embedder := mock.NewMockEmbedder()

	result, err := newTestPipeline(t, src, embedder).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, 1, result.Stats.Recomputed)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestPipeline_EmptyCorpus(t *testing.T) {
	result, err := newTestPipeline(t, newMemorySource(), mock.NewMockEmbedder()).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Entries)
	assert.Empty(t, result.Entries)
}

func TestPipeline_MalformedDocumentSkipped(t *testing.T) {
	src := newMemorySource().
		add(doc("a", 1, 1)).
		fail("bad.md", fmt.Errorf("bad.md: %w: yaml", core.ErrMalformedDocument)).
		add(doc("c", 1, 1))

	result, err := newTestPipeline(t, src, mock.NewMockEmbedder()).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, 1, result.Stats.Malformed)
}

func TestPipeline_DuplicateSlugSkipsLater(t *testing.T) {
	first := doc("same", 1, 1)
	first.Path = "one.md"
	second := doc("same", 2, 2)
	second.Path = "two.md"
	src := newMemorySource().add(first).add(second)

	result, err := newTestPipeline(t, src, mock.NewMockEmbedder()).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, int64(1), result.Entries[0].Mtime)
	assert.Equal(t, 1, result.Stats.Duplicates)
}

func TestPipeline_FatalErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("source access", func(t *testing.T) {
		src := newMemorySource().add(doc("a", 1, 1)).fail("gone.md", fmt.Errorf("%w: permission denied", core.ErrSourceAccess))
		result, err := newTestPipeline(t, src, mock.NewMockEmbedder()).Run(ctx, nil)
		assert.ErrorIs(t, err, core.ErrSourceAccess)
		assert.Nil(t, result)
	})

	t.Run("listing", func(t *testing.T) {
		src := newMemorySource()
		src.listFn = func() ([]string, error) { return nil, core.ErrSourceAccess }
		_, err := newTestPipeline(t, src, mock.NewMockEmbedder()).Run(ctx, nil)
		assert.ErrorIs(t, err, core.ErrSourceAccess)
	})

	t.Run("provider", func(t *testing.T) {
		embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(context.Context, []string) ([][]float32, error) {
			return nil, errors.New("inference error")
		})
		src := newMemorySource().add(doc("a", 1, 40))
		result, err := newTestPipeline(t, src, embedder).Run(ctx, nil)
		assert.ErrorIs(t, err, core.ErrEmbeddingProvider)
		assert.Nil(t, result)
	})
}

func TestPipeline_PreviousDimensionMismatchRebuilds(t *testing.T) {
	prev := core.NewPreviousIndex([]core.IndexEntry{
		{ID: "a#para-0", Slug: "a", Mtime: 1, Vector: []float32{1, 0}},
	})
	src := newMemorySource().add(doc("a", 1, 1))
	embedder := mock.NewMockEmbedder().WithDimensions(8)

	result, err := newTestPipeline(t, src, embedder, WithDimensions(8)).Run(context.Background(), prev)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Len(t, result.Entries[0].Vector, 8)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestPipeline_LearnedDimensionMismatchRebuilds(t *testing.T) {
	ctx := context.Background()
	prev := core.NewPreviousIndex([]core.IndexEntry{
		{ID: "a#para-0", Slug: "a", Title: "A", Mtime: 100, Vector: []float32{1, 0, 0, 0}},
		{ID: "b#para-0", Slug: "b", Title: "B", Mtime: 200, Vector: []float32{0, 1, 0, 0}},
	})
	src := newMemorySource().
		add(doc("a", 100, 1)).
		add(doc("b", 300, 1))
	embedder := mock.NewMockEmbedder().WithDimensions(8)

	result, err := newTestPipeline(t, src, embedder).Run(ctx, prev)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	for _, e := range result.Entries {
		assert.Len(t, e.Vector, 8, e.ID)
	}
	assert.Equal(t, "a#para-0", result.Entries[0].ID)
	assert.Equal(t, "b#para-0", result.Entries[1].ID)
	assert.Equal(t, 2, result.Stats.Recomputed)
	assert.Equal(t, 0, result.Stats.Carried)
	require.NoError(t, core.ValidateIndex(result.Entries))

	embedder.Reset()
	again, err := newTestPipeline(t, src, embedder).Run(ctx, core.NewPreviousIndex(result.Entries))
	require.NoError(t, err)
	assert.Equal(t, result.Entries, again.Entries)
	assert.Zero(t, embedder.CallCount())
}

func TestPipeline_CustomConverterAndMinLength(t *testing.T) {
	src := newMemorySource().add(core.Document{Slug: "x", Mtime: 1, Body: "abc\n\ndefgh"})

	result, err := newTestPipeline(t, src, mock.NewMockEmbedder(),
		WithMinFragmentLength(5),
		WithPlainText(strings.ToUpper),
	).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "x#para-0", result.Entries[0].ID)
}

func TestPipeline_Progress(t *testing.T) {
	progress := &countingProgress{}
	src := newMemorySource().add(doc("a", 1, 1)).add(doc("b", 1, 1))

	_, err := newTestPipeline(t, src, mock.NewMockEmbedder(), WithProgress(progress)).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.total)
	assert.Equal(t, 2, progress.done)
	assert.True(t, progress.finished)
}

type countingProgress struct {
	total, done int
	finished    bool
}

func (c *countingProgress) Start(total int)     { c.total = total }
func (c *countingProgress) Increment(delta int) { c.done += delta }
func (c *countingProgress) Finish()             { c.finished = true }

func TestNewPipeline_Validation(t *testing.T) {
	_, err := NewPipeline(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = NewPipeline(newMemorySource(), nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(newMemorySource(), mock.NewMockEmbedder(), WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = NewPipeline(newMemorySource(), mock.NewMockEmbedder(), WithMaxConcurrency(0))
	assert.ErrorIs(t, err, ErrInvalidConcurrency)

	_, err = NewPipeline(newMemorySource(), mock.NewMockEmbedder(), WithRetry(0, 0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
