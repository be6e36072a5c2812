package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

type TaskInput struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	AssigneeID  string
	DueDate     *int64
}

// TaskPatch carries the fields of a partial update; nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
	Priority    *model.TaskPriority
	AssigneeID  *string
	DueDate     *int64
}

type TaskService struct {
	projects ProjectRepo
	tasks    TaskRepo
	users    UserRepo
	now      func() time.Time
}

func NewTaskService(projects ProjectRepo, tasks TaskRepo, users UserRepo) *TaskService {
	return &TaskService{projects: projects, tasks: tasks, users: users, now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, userID, projectID string, in TaskInput) (*model.Task, error) {
	if _, err := s.projects.GetByID(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.TaskStatusTodo
	}
	if in.Priority == "" {
		in.Priority = model.TaskPriorityMedium
	}
	if strings.TrimSpace(in.Title) == "" || !in.Status.Valid() || !in.Priority.Valid() {
		return nil, appErr.ErrInvalid
	}
	now := s.now().UnixMilli()
	task := &model.Task{
		ID:          newID(),
		ProjectID:   projectID,
		UserID:      userID,
		AssigneeID:  in.AssigneeID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, appErr.Wrap(appErr.ErrDatabase, err)
	}
	return task, nil
}

// List attaches each task's assignee; a dangling assignee id yields a nil assignee.
func (s *TaskService) List(ctx context.Context, userID, projectID string) ([]model.TaskWithAssignee, error) {
	if _, err := s.projects.GetByID(ctx, userID, projectID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, userID, projectID)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrDatabase, err)
	}
	users := make(map[string]*model.User)
	items := make([]model.TaskWithAssignee, 0, len(tasks))
	for _, task := range tasks {
		item := model.TaskWithAssignee{Task: task}
		if task.AssigneeID != "" {
			user, ok := users[task.AssigneeID]
			if !ok {
				user, err = s.users.GetByID(ctx, task.AssigneeID)
				if err != nil {
					logutil.GetLogger(ctx).Warn("load task assignee failed",
						zap.String("task_id", task.ID), zap.String("assignee_id", task.AssigneeID), zap.Error(err))
					user = nil
				}
				users[task.AssigneeID] = user
			}
			item.Assignee = user
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch TaskPatch) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.AssigneeID != nil {
		task.AssigneeID = *patch.AssigneeID
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if task.Title == "" || !task.Status.Valid() || !task.Priority.Valid() {
		return nil, appErr.ErrInvalid
	}
	task.Mtime = s.now().UnixMilli()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	return s.tasks.Delete(ctx, userID, taskID)
}
