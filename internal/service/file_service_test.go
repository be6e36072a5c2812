package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/projdesk/internal/listcache"
	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

func newFileFixture() (*FileService, *fakeDocs, *fakeStore) {
	docs := &fakeDocs{items: []model.Document{
		{ID: "d1", ProjectID: "p1", UserID: "u1", Name: "a.pdf", Content: "aaa", StorageKey: "p1/1-a.pdf", Ctime: 1},
		{ID: "d2", ProjectID: "p1", UserID: "u1", Name: "b.pdf", Content: "bbb", StorageKey: "p1/2-b.pdf", Ctime: 2},
		{ID: "d3", ProjectID: "p1", UserID: "u1", Name: "gone.pdf", StorageKey: "p1/3-gone.pdf", Ctime: 3},
	}}
	store := newFakeStore()
	store.objects["p1/1-a.pdf"] = []byte("a")
	store.objects["p1/2-b.pdf"] = []byte("b")
	projects := newFakeProjects(model.Project{ID: "p1", UserID: "u1"})
	return NewFileService(projects, docs, store, listcache.NewLRU(16, time.Minute)), docs, store
}

func TestFileListDropsMissingBlobs(t *testing.T) {
	svc, docs, _ := newFileFixture()
	items, err := svc.List(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "d2", items[0].ID)
	require.Equal(t, "d1", items[1].ID)
	require.Empty(t, items[0].Content)

	_, err = svc.List(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.Equal(t, 1, docs.listCalls)

	_, err = svc.List(context.Background(), "u2", "p1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestFileDeleteRemovesBlobAndRow(t *testing.T) {
	svc, docs, store := newFileFixture()
	_, err := svc.List(context.Background(), "u1", "p1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "u1", "p1", "d1"))
	require.NotContains(t, store.objects, "p1/1-a.pdf")
	_, err = docs.GetByID(context.Background(), "u1", "d1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	items, err := svc.List(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, docs.listCalls)
}

func TestFileDeleteStorageFailureKeepsRow(t *testing.T) {
	svc, docs, store := newFileFixture()
	store.removeErr = errors.New("denied")
	err := svc.Delete(context.Background(), "u1", "p1", "d1")
	require.ErrorIs(t, err, appErr.ErrStorage)
	_, err = docs.GetByID(context.Background(), "u1", "d1")
	require.NoError(t, err)
}

func TestFileDeleteScoping(t *testing.T) {
	svc, _, _ := newFileFixture()
	require.ErrorIs(t, svc.Delete(context.Background(), "u2", "p1", "d1"), appErr.ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), "u1", "p9", "d1"), appErr.ErrNotFound)
}

func TestFileDownloadURL(t *testing.T) {
	svc, _, store := newFileFixture()
	link, err := svc.DownloadURL(context.Background(), "u1", "d1")
	require.NoError(t, err)
	require.Equal(t, "https://signed.example/p1/1-a.pdf", link)
	require.Equal(t, 60*time.Second, store.lastTTL)

	_, err = svc.DownloadURL(context.Background(), "u1", "d3")
	require.ErrorIs(t, err, appErr.ErrStorage)
	_, err = svc.DownloadURL(context.Background(), "u2", "d1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.Equal(t, "https://public.example/p1/1-a.pdf", svc.PublicURL("p1/1-a.pdf"))
}

// racingCache runs hook right before the first Set reaches the underlying cache.
type racingCache struct {
	*listcache.LRU
	hook func()
}

func (c *racingCache) Set(ctx context.Context, projectID, userID string, gen uint64, docs []model.Document) error {
	if hook := c.hook; hook != nil {
		c.hook = nil
		hook()
	}
	return c.LRU.Set(ctx, projectID, userID, gen, docs)
}

func TestFileListDoesNotCacheSnapshotOlderThanDelete(t *testing.T) {
	docs := &fakeDocs{items: []model.Document{
		{ID: "d1", ProjectID: "p1", UserID: "u1", Name: "a.pdf", StorageKey: "p1/1-a.pdf", Ctime: 1},
		{ID: "d2", ProjectID: "p1", UserID: "u1", Name: "b.pdf", StorageKey: "p1/2-b.pdf", Ctime: 2},
	}}
	store := newFakeStore()
	store.objects["p1/1-a.pdf"] = []byte("a")
	store.objects["p1/2-b.pdf"] = []byte("b")
	cache := &racingCache{LRU: listcache.NewLRU(16, time.Minute)}
	svc := NewFileService(newFakeProjects(model.Project{ID: "p1", UserID: "u1"}), docs, store, cache)
	ctx := context.Background()
	cache.hook = func() {
		require.NoError(t, svc.Delete(ctx, "u1", "p1", "d1"))
	}

	items, err := svc.List(ctx, "u1", "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = svc.List(ctx, "u1", "p1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "d2", items[0].ID)
	require.Equal(t, 2, docs.listCalls)
}
