package listcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/projdesk/internal/model"
)

const keySep = "\x00"

type LRU struct {
	mu    sync.Mutex
	gens  map[string]uint64
	cache *expirable.LRU[string, []model.Document]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{
		gens:  make(map[string]uint64),
		cache: expirable.NewLRU[string, []model.Document](size, nil, ttl),
	}
}

func (l *LRU) Get(ctx context.Context, projectID, userID string) ([]model.Document, bool, error) {
	docs, ok := l.cache.Get(projectID + keySep + userID)
	if !ok {
		return nil, false, nil
	}
	return stripContent(docs), true, nil
}

func (l *LRU) Generation(ctx context.Context, projectID string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[projectID], nil
}

func (l *LRU) Set(ctx context.Context, projectID, userID string, gen uint64, docs []model.Document) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gens[projectID] != gen {
		return nil
	}
	l.cache.Add(projectID+keySep+userID, stripContent(docs))
	return nil
}

func (l *LRU) Invalidate(ctx context.Context, projectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gens[projectID]++
	prefix := projectID + keySep
	for _, key := range l.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			l.cache.Remove(key)
		}
	}
	return nil
}
