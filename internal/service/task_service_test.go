package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

func newTaskFixture() *TaskService {
	projects := newFakeProjects(model.Project{ID: "p1", UserID: "u1"})
	users := &fakeUsers{items: map[string]model.User{"u2": {ID: "u2", Email: "dev@example.com"}}}
	return NewTaskService(projects, newFakeTasks(), users)
}

func TestTaskCreateDefaults(t *testing.T) {
	svc := newTaskFixture()
	task, err := svc.Create(context.Background(), "u1", "p1", TaskInput{Title: "Write brief"})
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusTodo, task.Status)
	require.Equal(t, model.TaskPriorityMedium, task.Priority)

	_, err = svc.Create(context.Background(), "u1", "p1", TaskInput{Title: "x", Status: "blocked"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Create(context.Background(), "u2", "p1", TaskInput{Title: "x"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestTaskListAttachesAssignee(t *testing.T) {
	svc := newTaskFixture()
	ctx := context.Background()
	_, err := svc.Create(ctx, "u1", "p1", TaskInput{Title: "a", AssigneeID: "u2"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", "p1", TaskInput{Title: "b", AssigneeID: "missing"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", "p1", TaskInput{Title: "c"})
	require.NoError(t, err)

	items, err := svc.List(ctx, "u1", "p1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.NotNil(t, items[0].Assignee)
	require.Equal(t, "dev@example.com", items[0].Assignee.Email)
	require.Nil(t, items[1].Assignee)
	require.Nil(t, items[2].Assignee)
}

func TestTaskPartialUpdate(t *testing.T) {
	svc := newTaskFixture()
	ctx := context.Background()
	task, err := svc.Create(ctx, "u1", "p1", TaskInput{Title: "a", Description: "keep"})
	require.NoError(t, err)

	done := model.TaskStatusDone
	updated, err := svc.Update(ctx, "u1", task.ID, TaskPatch{Status: &done})
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusDone, updated.Status)
	require.Equal(t, "keep", updated.Description)

	bad := model.TaskPriority("urgent")
	_, err = svc.Update(ctx, "u1", task.ID, TaskPatch{Priority: &bad})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Update(ctx, "u9", task.ID, TaskPatch{Status: &done})
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", task.ID))
}
