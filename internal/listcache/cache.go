package listcache

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/projdesk/internal/config"
	"github.com/xxxsen/projdesk/internal/model"
)

// Cache holds a user's view of a project's document list.
// Entries are invalidated per project, covering every user that listed it.
// Invalidate advances the project generation; Set is dropped when the
// generation it was read under is no longer current.
type Cache interface {
	Get(ctx context.Context, projectID, userID string) ([]model.Document, bool, error)
	Generation(ctx context.Context, projectID string) (uint64, error)
	Set(ctx context.Context, projectID, userID string, gen uint64, docs []model.Document) error
	Invalidate(ctx context.Context, projectID string) error
}

func New(ctx context.Context, cfg config.ListCacheConfig) (Cache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Type {
	case "", "none":
		return Noop{}, nil
	case "lru":
		return NewLRU(cfg.Size, ttl), nil
	case "redis":
		client, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported list cache type: %s", cfg.Type)
	}
}

type Noop struct{}

func (Noop) Get(ctx context.Context, projectID, userID string) ([]model.Document, bool, error) {
	return nil, false, nil
}

func (Noop) Generation(ctx context.Context, projectID string) (uint64, error) {
	return 0, nil
}

func (Noop) Set(ctx context.Context, projectID, userID string, gen uint64, docs []model.Document) error {
	return nil
}

func (Noop) Invalidate(ctx context.Context, projectID string) error {
	return nil
}

// stripContent drops the heavy fields the list view never returns.
func stripContent(docs []model.Document) []model.Document {
	out := make([]model.Document, len(docs))
	for i, doc := range docs {
		doc.Content = ""
		doc.Embedding = nil
		out[i] = doc
	}
	return out
}
