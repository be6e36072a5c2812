package service

import (
	"context"
	"time"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/filestore"
	"github.com/xxxsen/projdesk/internal/model"
)

type ProjectRepo interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, userID, projectID string) (*model.Project, error)
	List(ctx context.Context, userID string) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, userID, projectID string) error
}

type DocumentRepo interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, userID, docID string) (*model.Document, error)
	ListByProject(ctx context.Context, userID, projectID string) ([]model.Document, error)
	ListContents(ctx context.Context, projectID string) ([]string, error)
	SearchContents(ctx context.Context, projectID string, embedding []float32, topK int) ([]string, error)
	Delete(ctx context.Context, userID, docID string) error
}

type ChatMessageRepo interface {
	CreateBatch(ctx context.Context, msgs []model.ChatMessage) error
	ListByProject(ctx context.Context, projectID string) ([]model.ChatMessage, error)
}

type TaskRepo interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, userID, taskID string) (*model.Task, error)
	ListByProject(ctx context.Context, userID, projectID string) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID, taskID string) error
}

type UserRepo interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]filestore.Object, error)
	Remove(ctx context.Context, keys []string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

type Completer interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// ListCache is satisfied by listcache.Cache.
type ListCache interface {
	Get(ctx context.Context, projectID, userID string) ([]model.Document, bool, error)
	Generation(ctx context.Context, projectID string) (uint64, error)
	Set(ctx context.Context, projectID, userID string, gen uint64, docs []model.Document) error
	Invalidate(ctx context.Context, projectID string) error
}
