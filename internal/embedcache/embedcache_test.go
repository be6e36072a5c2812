package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/model"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "openai:ada"
}

type memStore struct {
	items   map[string]*model.CachedEmbedding
	getErr  error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{items: map[string]*model.CachedEmbedding{}}
}

func (m *memStore) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	item, ok := m.items[modelName+taskType+contentHash]
	if !ok {
		return nil, false, nil
	}
	return item.Embedding, true, nil
}

func (m *memStore) Save(ctx context.Context, item *model.CachedEmbedding) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.items[item.ModelName+item.TaskType+item.ContentHash] = item
	return nil
}

func TestWrapLRU(t *testing.T) {
	inner := &countingEmbedder{}
	e := WrapLRU(inner, 8, time.Minute)
	ctx := context.Background()

	first, err := e.Embed(ctx, "abc", ai.TaskRetrievalDocument)
	require.NoError(t, err)
	first[0] = 99
	second, err := e.Embed(ctx, "abc", ai.TaskRetrievalDocument)
	require.NoError(t, err)
	require.Equal(t, []float32{3, 1}, second)
	require.Equal(t, 1, inner.calls)

	_, err = e.Embed(ctx, "abc", ai.TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
	require.Equal(t, "openai:ada", e.ModelName())

	require.Same(t, inner, WrapLRU(inner, 0, time.Minute).(*countingEmbedder))
}

func TestWrapDB(t *testing.T) {
	inner := &countingEmbedder{}
	store := newMemStore()
	e := WrapDB(inner, store)
	ctx := context.Background()

	_, err := e.Embed(ctx, "hello", ai.TaskRetrievalDocument)
	require.NoError(t, err)
	require.Len(t, store.items, 1)
	values, err := e.Embed(ctx, "hello", ai.TaskRetrievalDocument)
	require.NoError(t, err)
	require.Equal(t, []float32{5, 1}, values)
	require.Equal(t, 1, inner.calls)
	for _, item := range store.items {
		require.Equal(t, "openai:ada", item.ModelName)
		require.Len(t, item.ContentHash, 64)
	}
}

func TestWrapDBToleratesCacheFailures(t *testing.T) {
	inner := &countingEmbedder{}
	store := newMemStore()
	store.getErr = errors.New("db down")
	store.saveErr = errors.New("db down")
	e := WrapDB(inner, store)

	values, err := e.Embed(context.Background(), "x", ai.TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 1}, values)

	inner.err = errors.New("provider down")
	_, err = e.Embed(context.Background(), "x", ai.TaskRetrievalQuery)
	require.EqualError(t, err, "provider down")
}
