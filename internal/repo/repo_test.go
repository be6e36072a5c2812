package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
	"github.com/xxxsen/projdesk/internal/repo"
	"github.com/xxxsen/projdesk/internal/testutil"
)

type fixture struct {
	user    *model.User
	project *model.Project
}

func seedProject(t *testing.T, ctx context.Context, users *repo.UserRepo, projects *repo.ProjectRepo) fixture {
	t.Helper()
	now := time.Now().UnixMilli()
	user := &model.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", Ctime: now}
	require.NoError(t, users.Create(ctx, user))
	project := &model.Project{ID: uuid.NewString(), UserID: user.ID, Name: "launch", Ctime: now, Mtime: now}
	require.NoError(t, projects.Create(ctx, project))
	return fixture{user: user, project: project}
}

func TestProjectRepoOwnership(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	users := repo.NewUserRepo(db)
	projects := repo.NewProjectRepo(db)
	fx := seedProject(t, ctx, users, projects)

	got, err := projects.GetByID(ctx, fx.user.ID, fx.project.ID)
	require.NoError(t, err)
	require.Equal(t, "launch", got.Name)
	require.Nil(t, got.EndDate)

	_, err = projects.GetByID(ctx, "someone-else", fx.project.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	end := time.Now().UnixMilli()
	fx.project.EndDate = &end
	fx.project.Name = "renamed"
	require.NoError(t, projects.Update(ctx, fx.project))
	got, err = projects.GetByID(ctx, fx.user.ID, fx.project.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Name)
	require.Equal(t, end, *got.EndDate)

	require.ErrorIs(t, projects.Delete(ctx, "someone-else", fx.project.ID), appErr.ErrNotFound)
	require.NoError(t, projects.Delete(ctx, fx.user.ID, fx.project.ID))
}

func TestDocumentRepoContentsAndSearch(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	fx := seedProject(t, ctx, repo.NewUserRepo(db), repo.NewProjectRepo(db))
	docs := repo.NewDocumentRepo(db)

	now := time.Now().UnixMilli()
	items := []model.Document{
		{Content: "first", Embedding: []float32{1, 0}},
		{Content: "second", Embedding: []float32{0, 1}},
		{Content: "third"},
	}
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].ProjectID = fx.project.ID
		items[i].UserID = fx.user.ID
		items[i].Name = items[i].Content + ".pdf"
		items[i].Type = "application/pdf"
		items[i].Size = 10
		items[i].StorageKey = fx.project.ID + "/" + items[i].ID
		items[i].Ctime = now
		require.NoError(t, docs.Create(ctx, &items[i]))
	}
	dup := items[0]
	dup.ID = uuid.NewString()
	require.ErrorIs(t, docs.Create(ctx, &dup), appErr.ErrConflict)

	contents, err := docs.ListContents(ctx, fx.project.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "third"}, contents)

	nearest, err := docs.SearchContents(ctx, fx.project.ID, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"second"}, nearest)

	listed, err := docs.ListByProject(ctx, fx.user.ID, fx.project.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	pending, err := docs.ListMissingEmbedding(ctx, 100)
	require.NoError(t, err)
	var found bool
	for _, doc := range pending {
		if doc.ID == items[2].ID {
			found = true
		}
	}
	require.True(t, found)
	require.NoError(t, docs.UpdateEmbedding(ctx, items[2].ID, []float32{1, 1}))

	require.NoError(t, docs.Delete(ctx, fx.user.ID, items[0].ID))
	_, err = docs.GetByID(ctx, fx.user.ID, items[0].ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestChatMessageRepoOrder(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	fx := seedProject(t, ctx, repo.NewUserRepo(db), repo.NewProjectRepo(db))
	messages := repo.NewChatMessageRepo(db)

	now := time.Now().UnixMilli()
	require.NoError(t, messages.CreateBatch(ctx, []model.ChatMessage{
		{ID: uuid.NewString(), ProjectID: fx.project.ID, UserID: fx.user.ID, Content: "q", Role: model.ChatRoleUser, Ctime: now},
		{ID: uuid.NewString(), ProjectID: fx.project.ID, UserID: fx.user.ID, Content: "a", Role: model.ChatRoleAssistant, Ctime: now},
	}))
	got, err := messages.ListByProject(ctx, fx.project.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, model.ChatRoleUser, got[0].Role)
	require.Equal(t, model.ChatRoleAssistant, got[1].Role)
}

func TestTaskRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	fx := seedProject(t, ctx, repo.NewUserRepo(db), repo.NewProjectRepo(db))
	tasks := repo.NewTaskRepo(db)

	now := time.Now().UnixMilli()
	task := &model.Task{
		ID: uuid.NewString(), ProjectID: fx.project.ID, UserID: fx.user.ID, Title: "draft",
		Status: model.TaskStatusTodo, Priority: model.TaskPriorityMedium, Ctime: now, Mtime: now,
	}
	require.NoError(t, tasks.Create(ctx, task))
	task.Status = model.TaskStatusDone
	require.NoError(t, tasks.Update(ctx, task))
	got, err := tasks.GetByID(ctx, fx.user.ID, task.ID)
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusDone, got.Status)

	list, err := tasks.ListByProject(ctx, fx.user.ID, fx.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, tasks.Delete(ctx, fx.user.ID, task.ID))
}

func TestEmbeddingCacheRepo(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	cache := repo.NewEmbeddingCacheRepo(db)
	hash := uuid.NewString()

	_, ok, err := cache.Get(ctx, "m", "RETRIEVAL_QUERY", hash)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Save(ctx, &model.CachedEmbedding{ModelName: "m", TaskType: "RETRIEVAL_QUERY", ContentHash: hash, Embedding: []float32{1, 2}, Ctime: 1}))
	require.NoError(t, cache.Save(ctx, &model.CachedEmbedding{ModelName: "m", TaskType: "RETRIEVAL_QUERY", ContentHash: hash, Embedding: []float32{3, 4}, Ctime: 2}))
	values, ok, err := cache.Get(ctx, "m", "RETRIEVAL_QUERY", hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{3, 4}, values)

	removed, err := cache.DeleteBefore(ctx, 3)
	require.NoError(t, err)
	require.GreaterOrEqual(t, removed, int64(1))
}
