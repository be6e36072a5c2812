package job

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/service"
)

type PendingEmbeddingRepo interface {
	ListMissingEmbedding(ctx context.Context, limit int) ([]model.Document, error)
	UpdateEmbedding(ctx context.Context, docID string, embedding []float32) error
}

// EmbeddingBackfillJob embeds documents whose embedding was skipped at upload time.
type EmbeddingBackfillJob struct {
	docs     PendingEmbeddingRepo
	embedder service.Embedder
	batch    int
}

func NewEmbeddingBackfillJob(docs PendingEmbeddingRepo, embedder service.Embedder, batch int) *EmbeddingBackfillJob {
	if batch <= 0 {
		batch = 20
	}
	return &EmbeddingBackfillJob{docs: docs, embedder: embedder, batch: batch}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.docs == nil || j.embedder == nil {
		return nil
	}
	docs, err := j.docs.ListMissingEmbedding(ctx, j.batch)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("job", j.Name()))
	var filled, failed int
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		values, err := j.embedder.Embed(ctx, service.EmbeddingInput(doc.Content), ai.TaskRetrievalDocument)
		if err != nil || len(values) == 0 {
			failed++
			logger.Warn("embed document failed", zap.String("doc_id", doc.ID), zap.Error(err))
			continue
		}
		if err := j.docs.UpdateEmbedding(ctx, doc.ID, values); err != nil {
			return err
		}
		filled++
	}
	if filled > 0 || failed > 0 {
		logger.Info("embedding backfill done", zap.Int("filled", filled), zap.Int("failed", failed))
	}
	return nil
}
