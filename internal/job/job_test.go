package job

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/model"
)

type fakePending struct {
	docs    []model.Document
	limit   int
	updated map[string][]float32
}

func (f *fakePending) ListMissingEmbedding(ctx context.Context, limit int) ([]model.Document, error) {
	f.limit = limit
	return f.docs, nil
}

func (f *fakePending) UpdateEmbedding(ctx context.Context, docID string, embedding []float32) error {
	if f.updated == nil {
		f.updated = make(map[string][]float32)
	}
	f.updated[docID] = embedding
	return nil
}

type fakeEmbedder struct {
	inputs []string
	tasks  []string
	fail   map[string]bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.inputs = append(f.inputs, text)
	f.tasks = append(f.tasks, taskType)
	if f.fail[text] {
		return nil, errors.New("quota")
	}
	return []float32{float32(len(text))}, nil
}

func TestEmbeddingBackfill(t *testing.T) {
	long := strings.Repeat("x", 9000)
	repo := &fakePending{docs: []model.Document{
		{ID: "d1", Content: "alpha"},
		{ID: "d2", Content: "   "},
		{ID: "d3", Content: "broken"},
		{ID: "d4", Content: long},
	}}
	emb := &fakeEmbedder{fail: map[string]bool{"broken": true}}
	job := NewEmbeddingBackfillJob(repo, emb, 0)
	require.Equal(t, "embedding_backfill", job.Name())
	require.NoError(t, job.Run(context.Background()))

	require.Equal(t, 20, repo.limit)
	require.Len(t, emb.inputs, 3)
	for _, task := range emb.tasks {
		require.Equal(t, ai.TaskRetrievalDocument, task)
	}
	require.Equal(t, []float32{5}, repo.updated["d1"])
	require.Equal(t, []float32{8000}, repo.updated["d4"])
	require.NotContains(t, repo.updated, "d2")
	require.NotContains(t, repo.updated, "d3")
}

func TestEmbeddingBackfillWithoutEmbedder(t *testing.T) {
	require.NoError(t, NewEmbeddingBackfillJob(&fakePending{}, nil, 5).Run(context.Background()))
}

type fakeExpirer struct {
	cutoff int64
}

func (f *fakeExpirer) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	f.cutoff = cutoff
	return 3, nil
}

func TestEmbeddingCacheCleanup(t *testing.T) {
	expirer := &fakeExpirer{}
	job := NewEmbeddingCacheCleanupJob(expirer, 2)
	now := time.UnixMilli(1700000000000)
	job.now = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, now.Add(-48*time.Hour).UnixMilli(), expirer.cutoff)
}
