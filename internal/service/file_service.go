package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

const downloadURLTTL = 60 * time.Second

type FileService struct {
	projects ProjectRepo
	docs     DocumentRepo
	store    ObjectStore
	cache    ListCache
}

func NewFileService(projects ProjectRepo, docs DocumentRepo, store ObjectStore, cache ListCache) *FileService {
	return &FileService{projects: projects, docs: docs, store: store, cache: cache}
}

// List returns the caller's documents newest first, skipping rows whose blob is gone.
func (s *FileService) List(ctx context.Context, userID, projectID string) ([]model.Document, error) {
	if _, err := s.projects.GetByID(ctx, userID, projectID); err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID))
	if docs, ok, err := s.cache.Get(ctx, projectID, userID); err != nil {
		logger.Warn("read file list cache failed", zap.Error(err))
	} else if ok {
		return docs, nil
	}
	gen, genErr := s.cache.Generation(ctx, projectID)
	if genErr != nil {
		logger.Warn("read file list generation failed", zap.Error(genErr))
	}

	docs, err := s.docs.ListByProject(ctx, userID, projectID)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrDatabase, err)
	}
	objects, err := s.store.List(ctx, projectID+"/")
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrStorage, fmt.Errorf("list %s: %w", projectID, err))
	}
	present := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		present[obj.Name] = struct{}{}
	}
	items := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		if _, ok := present[path.Base(doc.StorageKey)]; !ok {
			logger.Debug("skip document without blob", zap.String("id", doc.ID), zap.String("key", doc.StorageKey))
			continue
		}
		doc.Content = ""
		doc.Embedding = nil
		items = append(items, doc)
	}
	if genErr == nil {
		if err := s.cache.Set(ctx, projectID, userID, gen, items); err != nil {
			logger.Warn("write file list cache failed", zap.Error(err))
		}
	}
	return items, nil
}

func (s *FileService) DownloadURL(ctx context.Context, userID, fileID string) (string, error) {
	doc, err := s.docs.GetByID(ctx, userID, fileID)
	if err != nil {
		return "", err
	}
	link, err := s.store.SignedURL(ctx, doc.StorageKey, downloadURLTTL)
	if err != nil {
		return "", appErr.Wrap(appErr.ErrStorage, fmt.Errorf("sign %s: %w", doc.StorageKey, err))
	}
	return link, nil
}

func (s *FileService) PublicURL(key string) string {
	return s.store.PublicURL(key)
}

// Delete removes the blob first; the row goes only when the blob removal succeeded.
func (s *FileService) Delete(ctx context.Context, userID, projectID, fileID string) error {
	doc, err := s.docs.GetByID(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if doc.ProjectID != projectID {
		return appErr.ErrNotFound
	}
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID), zap.String("id", fileID))
	if err := s.store.Remove(ctx, []string{doc.StorageKey}); err != nil {
		logger.Error("remove blob failed", zap.String("key", doc.StorageKey), zap.Error(err))
		return appErr.Wrap(appErr.ErrStorage, fmt.Errorf("remove %s: %w", doc.StorageKey, err))
	}
	if err := s.docs.Delete(ctx, userID, fileID); err != nil {
		if appErr.IsNotFound(err) {
			return err
		}
		logger.Error("delete document row failed", zap.Error(err))
		return appErr.Wrap(appErr.ErrDatabase, err)
	}
	if err := s.cache.Invalidate(ctx, projectID); err != nil {
		logger.Warn("invalidate file list cache failed", zap.Error(err))
	}
	logger.Info("document deleted")
	return nil
}
