package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/filestore"
	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

type fakeProjects struct {
	mu    sync.Mutex
	items map[string]model.Project
}

func newFakeProjects(projects ...model.Project) *fakeProjects {
	f := &fakeProjects{items: map[string]model.Project{}}
	for _, p := range projects {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProjects) Create(ctx context.Context, project *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[project.ID] = *project
	return nil
}

func (f *fakeProjects) GetByID(ctx context.Context, userID, projectID string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[projectID]
	if !ok || p.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProjects) List(ctx context.Context, userID string) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Project, 0)
	for _, p := range f.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjects) Update(ctx context.Context, project *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[project.ID]
	if !ok || p.UserID != project.UserID {
		return appErr.ErrNotFound
	}
	f.items[project.ID] = *project
	return nil
}

func (f *fakeProjects) Delete(ctx context.Context, userID, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[projectID]
	if !ok || p.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(f.items, projectID)
	return nil
}

type fakeDocs struct {
	mu        sync.Mutex
	items     []model.Document
	createErr error
	listCalls int
	searched  []float32
	events    *[]string
}

func (f *fakeDocs) Create(ctx context.Context, doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events != nil {
		*f.events = append(*f.events, "insert:"+doc.StorageKey)
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.items = append(f.items, *doc)
	return nil
}

func (f *fakeDocs) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.items {
		if doc.ID == docID && doc.UserID == userID {
			d := doc
			return &d, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeDocs) ListByProject(ctx context.Context, userID, projectID string) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]model.Document, 0)
	for i := len(f.items) - 1; i >= 0; i-- {
		doc := f.items[i]
		if doc.ProjectID == projectID && doc.UserID == userID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocs) ListContents(ctx context.Context, projectID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0)
	for _, doc := range f.items {
		if doc.ProjectID == projectID {
			out = append(out, doc.Content)
		}
	}
	return out, nil
}

func (f *fakeDocs) SearchContents(ctx context.Context, projectID string, embedding []float32, topK int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = embedding
	out := make([]string, 0)
	for _, doc := range f.items {
		if doc.ProjectID == projectID && doc.HasEmbedding() && len(out) < topK {
			out = append(out, doc.Content)
		}
	}
	return out, nil
}

func (f *fakeDocs) Delete(ctx context.Context, userID, docID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, doc := range f.items {
		if doc.ID == docID && doc.UserID == userID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return appErr.ErrNotFound
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	removeErr error
	lastTTL   time.Duration
	events    *[]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events != nil {
		*f.events = append(*f.events, "upload:"+key)
	}
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if _, ok := f.objects[key]; ok {
		return filestore.ErrObjectExists
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]filestore.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]filestore.Object, 0)
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, filestore.Object{Key: key, Name: strings.TrimPrefix(key, prefix), Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeStore) Remove(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, key := range keys {
		delete(f.objects, key)
	}
	return nil
}

func (f *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	f.lastTTL = ttl
	return "https://signed.example/" + key, nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://public.example/" + key
}

type fakeEmbedder struct {
	values []float32
	err    error
	inputs []string
	tasks  []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.inputs = append(f.inputs, text)
	f.tasks = append(f.tasks, taskType)
	if f.err != nil {
		return nil, f.err
	}
	return f.values, nil
}

type fakeCompleter struct {
	reply string
	err   error
	got   [][]ai.Message
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	f.got = append(f.got, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeMessages struct {
	batches [][]model.ChatMessage
	err     error
}

func (f *fakeMessages) CreateBatch(ctx context.Context, msgs []model.ChatMessage) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func (f *fakeMessages) ListByProject(ctx context.Context, projectID string) ([]model.ChatMessage, error) {
	out := make([]model.ChatMessage, 0)
	for _, batch := range f.batches {
		for _, msg := range batch {
			if msg.ProjectID == projectID {
				out = append(out, msg)
			}
		}
	}
	return out, nil
}

type fakeUsers struct {
	items map[string]model.User
}

func (f *fakeUsers) GetByID(ctx context.Context, userID string) (*model.User, error) {
	u, ok := f.items[userID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &u, nil
}

type fakeTasks struct {
	items map[string]model.Task
	order []string
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{items: map[string]model.Task{}}
}

func (f *fakeTasks) Create(ctx context.Context, task *model.Task) error {
	f.items[task.ID] = *task
	f.order = append(f.order, task.ID)
	return nil
}

func (f *fakeTasks) GetByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	t, ok := f.items[taskID]
	if !ok || t.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTasks) ListByProject(ctx context.Context, userID, projectID string) ([]model.Task, error) {
	out := make([]model.Task, 0)
	for _, id := range f.order {
		t, ok := f.items[id]
		if ok && t.ProjectID == projectID && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) Update(ctx context.Context, task *model.Task) error {
	if _, ok := f.items[task.ID]; !ok {
		return appErr.ErrNotFound
	}
	f.items[task.ID] = *task
	return nil
}

func (f *fakeTasks) Delete(ctx context.Context, userID, taskID string) error {
	t, ok := f.items[taskID]
	if !ok || t.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(f.items, taskID)
	return nil
}
