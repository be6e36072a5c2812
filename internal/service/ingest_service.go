package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

const embeddingInputRunes = 8000

type IngestInput struct {
	UserID    string
	ProjectID string
	Name      string
	Type      string
	Size      int64
	Data      []byte
	Text      string
}

type IngestService struct {
	projects ProjectRepo
	docs     DocumentRepo
	store    ObjectStore
	embedder Embedder
	cache    ListCache
	now      func() time.Time
}

func NewIngestService(projects ProjectRepo, docs DocumentRepo, store ObjectStore, embedder Embedder, cache ListCache) *IngestService {
	return &IngestService{projects: projects, docs: docs, store: store, embedder: embedder, cache: cache, now: time.Now}
}

// Ingest uploads the bytes, embeds the text best-effort and persists the document row.
func (s *IngestService) Ingest(ctx context.Context, in IngestInput) (*model.Document, error) {
	if in.Name == "" || len(in.Data) == 0 {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.projects.GetByID(ctx, in.UserID, in.ProjectID); err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", in.ProjectID), zap.String("name", in.Name))
	now := s.now()
	key := StorageKey(in.ProjectID, in.Name, now)
	if err := s.store.Upload(ctx, key, in.Data, in.Type); err != nil {
		logger.Error("upload file failed", zap.String("key", key), zap.Error(err))
		return nil, appErr.Wrap(appErr.ErrStorage, fmt.Errorf("upload %s: %w", key, err))
	}

	doc := &model.Document{
		ID:         newID(),
		ProjectID:  in.ProjectID,
		UserID:     in.UserID,
		Name:       in.Name,
		Type:       in.Type,
		Size:       in.Size,
		Content:    in.Text,
		StorageKey: key,
		Ctime:      now.UnixMilli(),
	}
	if doc.Size <= 0 {
		doc.Size = int64(len(in.Data))
	}
	doc.Embedding = s.embed(ctx, logger, in.Text)

	if err := s.docs.Create(ctx, doc); err != nil {
		logger.Error("insert document failed, blob left in store", zap.String("key", key), zap.Error(err))
		return nil, appErr.Wrap(appErr.ErrDatabase, fmt.Errorf("insert document: %w", err))
	}
	if err := s.cache.Invalidate(ctx, in.ProjectID); err != nil {
		logger.Warn("invalidate file list cache failed", zap.Error(err))
	}
	logger.Info("document ingested", zap.String("id", doc.ID), zap.Int64("size", doc.Size), zap.Bool("embedded", doc.HasEmbedding()))
	return doc, nil
}

// embed returns nil when the document is stored without a vector; the failure is logged here only.
func (s *IngestService) embed(ctx context.Context, logger *zap.Logger, text string) []float32 {
	if s.embedder == nil {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		logger.Debug("skip embedding for blank text")
		return nil
	}
	values, err := s.embedder.Embed(ctx, EmbeddingInput(text), ai.TaskRetrievalDocument)
	if err != nil {
		logger.Warn("embed document failed, storing without embedding", zap.Error(appErr.Wrap(appErr.ErrEmbedding, err)))
		return nil
	}
	return values
}

// StorageKey builds "{projectID}/{unixMillis}-{sanitized name}".
func StorageKey(projectID, name string, now time.Time) string {
	return projectID + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + SanitizeName(name)
}

// SanitizeName replaces every rune outside [A-Za-z0-9.-] with an underscore.
func SanitizeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// EmbeddingInput is the prefix of a document's text that gets embedded.
func EmbeddingInput(text string) string {
	return truncateRunes(text, embeddingInputRunes)
}

func truncateRunes(text string, limit int) string {
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
