package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/listcache"
	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

var fixedNow = time.UnixMilli(1700000000123)

type ingestFixture struct {
	svc      *IngestService
	docs     *fakeDocs
	store    *fakeStore
	embedder *fakeEmbedder
	cache    *listcache.LRU
	events   []string
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		docs:     &fakeDocs{},
		store:    newFakeStore(),
		embedder: &fakeEmbedder{values: []float32{0.1, 0.2}},
		cache:    listcache.NewLRU(16, time.Minute),
	}
	f.docs.events = &f.events
	f.store.events = &f.events
	projects := newFakeProjects(model.Project{ID: "p1", UserID: "u1", Name: "Launch"})
	f.svc = NewIngestService(projects, f.docs, f.store, f.embedder, f.cache)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func pdfInput(text string) IngestInput {
	return IngestInput{
		UserID:    "u1",
		ProjectID: "p1",
		Name:      "report.pdf",
		Type:      "application/pdf",
		Size:      5,
		Data:      []byte("%PDF-"),
		Text:      text,
	}
}

func TestIngestStoresBlobThenRow(t *testing.T) {
	f := newIngestFixture()
	doc, err := f.svc.Ingest(context.Background(), pdfInput("Q1 Revenue was $10k"))
	require.NoError(t, err)

	require.Equal(t, "p1/1700000000123-report.pdf", doc.StorageKey)
	require.Equal(t, []string{"upload:p1/1700000000123-report.pdf", "insert:p1/1700000000123-report.pdf"}, f.events)
	require.Equal(t, []byte("%PDF-"), f.store.objects[doc.StorageKey])
	require.Len(t, f.docs.items, 1)
	row := f.docs.items[0]
	require.Equal(t, "Q1 Revenue was $10k", row.Content)
	require.Equal(t, []float32{0.1, 0.2}, row.Embedding)
	require.Equal(t, "application/pdf", row.Type)
	require.Equal(t, int64(5), row.Size)
	require.Equal(t, []string{ai.TaskRetrievalDocument}, f.embedder.tasks)
}

func TestIngestEmbeddingFailureStillPersists(t *testing.T) {
	f := newIngestFixture()
	f.embedder.err = errors.New("embedding service down")
	doc, err := f.svc.Ingest(context.Background(), pdfInput("Q1 Revenue was $10k"))
	require.NoError(t, err)
	require.False(t, doc.HasEmbedding())
	require.Len(t, f.docs.items, 1)
	require.Nil(t, f.docs.items[0].Embedding)
}

func TestIngestUploadFailureWritesNoRow(t *testing.T) {
	f := newIngestFixture()
	f.store.uploadErr = errors.New("bucket offline")
	_, err := f.svc.Ingest(context.Background(), pdfInput("x"))
	require.ErrorIs(t, err, appErr.ErrStorage)
	require.Empty(t, f.docs.items)
	require.Empty(t, f.embedder.inputs)
}

func TestIngestDuplicateKeyIsStorageError(t *testing.T) {
	f := newIngestFixture()
	_, err := f.svc.Ingest(context.Background(), pdfInput("x"))
	require.NoError(t, err)
	_, err = f.svc.Ingest(context.Background(), pdfInput("x"))
	require.ErrorIs(t, err, appErr.ErrStorage)
	require.Len(t, f.docs.items, 1)
}

func TestIngestRowFailureLeavesBlob(t *testing.T) {
	f := newIngestFixture()
	f.docs.createErr = errors.New("connection reset")
	_, err := f.svc.Ingest(context.Background(), pdfInput("x"))
	require.ErrorIs(t, err, appErr.ErrDatabase)
	require.Len(t, f.store.objects, 1)
}

func TestIngestTruncatesEmbeddingInput(t *testing.T) {
	f := newIngestFixture()
	text := strings.Repeat("é", 9000)
	doc, err := f.svc.Ingest(context.Background(), pdfInput(text))
	require.NoError(t, err)
	require.Len(t, f.embedder.inputs, 1)
	require.Equal(t, 8000, utf8.RuneCountInString(f.embedder.inputs[0]))
	require.Equal(t, text, doc.Content)
}

func TestIngestSkipsEmbeddingForEmptyText(t *testing.T) {
	f := newIngestFixture()
	doc, err := f.svc.Ingest(context.Background(), pdfInput("   "))
	require.NoError(t, err)
	require.False(t, doc.HasEmbedding())
	require.Empty(t, f.embedder.inputs)
}

func TestEmbedLogsFailureOnce(t *testing.T) {
	f := newIngestFixture()
	f.embedder.err = errors.New("embedding service down")
	core, logs := observer.New(zapcore.DebugLevel)

	require.Nil(t, f.svc.embed(context.Background(), zap.New(core), "quarterly plan"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, zapcore.WarnLevel, entry.Level)
	require.Equal(t, "embed document failed, storing without embedding", entry.Message)

	f.embedder.err = nil
	core, logs = observer.New(zapcore.DebugLevel)
	require.Nil(t, f.svc.embed(context.Background(), zap.New(core), " \n "))
	require.Equal(t, 1, logs.Len())
	require.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
	require.Equal(t, "skip embedding for blank text", logs.All()[0].Message)
}

func TestIngestRejectsForeignProject(t *testing.T) {
	f := newIngestFixture()
	in := pdfInput("x")
	in.UserID = "intruder"
	_, err := f.svc.Ingest(context.Background(), in)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Empty(t, f.events)

	in = pdfInput("x")
	in.Data = nil
	_, err = f.svc.Ingest(context.Background(), in)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIngestInvalidatesListCache(t *testing.T) {
	f := newIngestFixture()
	require.NoError(t, f.cache.Set(context.Background(), "p1", "u1", 0, []model.Document{{ID: "stale"}}))
	_, err := f.svc.Ingest(context.Background(), pdfInput("x"))
	require.NoError(t, err)
	_, ok, err := f.cache.Get(context.Background(), "p1", "u1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "report.pdf", want: "report.pdf"},
		{in: "Q1 report (final).pdf", want: "Q1_report__final_.pdf"},
		{in: "résumé.docx", want: "r_sum_.docx"},
		{in: "a/b\\c.pdf", want: "a_b_c.pdf"},
		{in: "v1.2-draft_x.pdf", want: "v1.2-draft_x.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	require.Equal(t, "abc", truncateRunes("abc", 8000))
	require.Equal(t, "ab", truncateRunes("abc", 2))
	require.Equal(t, "日本", truncateRunes("日本語", 2))
	require.Equal(t, "", truncateRunes("abc", 0))
}
