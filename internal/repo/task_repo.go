package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/pkg/dbutil"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

var taskColumns = []string{"id", "project_id", "user_id", "assignee_id", "title", "description", "status", "priority", "due_date", "ctime", "mtime"}

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	data := map[string]interface{}{
		"id":          task.ID,
		"project_id":  task.ProjectID,
		"user_id":     task.UserID,
		"assignee_id": task.AssigneeID,
		"title":       task.Title,
		"description": task.Description,
		"status":      string(task.Status),
		"priority":    string(task.Priority),
		"ctime":       task.Ctime,
		"mtime":       task.Mtime,
	}
	if task.DueDate != nil {
		data["due_date"] = *task.DueDate
	}
	sqlStr, args, err := builder.BuildInsert("tasks", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsForeignKeyViolation(err) {
			return appErr.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	sqlStr, args, err := builder.BuildSelect("tasks", map[string]interface{}{"id": taskID, "user_id": userID}, taskColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	return scanTask(rows)
}

func (r *TaskRepo) ListByProject(ctx context.Context, userID, projectID string) ([]model.Task, error) {
	where := map[string]interface{}{
		"project_id": projectID,
		"user_id":    userID,
		"_orderby":   "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("tasks", where, taskColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Task, 0)
	for rows.Next() {
		item, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, task *model.Task) error {
	where := map[string]interface{}{
		"id":      task.ID,
		"user_id": task.UserID,
	}
	update := map[string]interface{}{
		"assignee_id": task.AssigneeID,
		"title":       task.Title,
		"description": task.Description,
		"status":      string(task.Status),
		"priority":    string(task.Priority),
		"due_date":    nullableInt64(task.DueDate),
		"mtime":       task.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("tasks", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffectingOne(ctx, r.db, sqlStr, args)
}

func (r *TaskRepo) Delete(ctx context.Context, userID, taskID string) error {
	sqlStr, args, err := builder.BuildDelete("tasks", map[string]interface{}{"id": taskID, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffectingOne(ctx, r.db, sqlStr, args)
}

func scanTask(rows *sql.Rows) (*model.Task, error) {
	var item model.Task
	var status, priority string
	var due sql.NullInt64
	if err := rows.Scan(&item.ID, &item.ProjectID, &item.UserID, &item.AssigneeID, &item.Title, &item.Description, &status, &priority, &due, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	item.Status = model.TaskStatus(status)
	item.Priority = model.TaskPriority(priority)
	item.DueDate = int64Ptr(due)
	return &item, nil
}
