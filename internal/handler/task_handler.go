package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/pkg/response"
	"github.com/xxxsen/projdesk/internal/service"
)

type TaskAPI interface {
	Create(ctx context.Context, userID, projectID string, in service.TaskInput) (*model.Task, error)
	List(ctx context.Context, userID, projectID string) ([]model.TaskWithAssignee, error)
	Update(ctx context.Context, userID, taskID string, patch service.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

type TaskHandler struct {
	tasks TaskAPI
}

func NewTaskHandler(tasks TaskAPI) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      model.TaskStatus   `json:"status"`
	Priority    model.TaskPriority `json:"priority"`
	AssigneeID  string             `json:"assignee_id"`
	DueDate     *int64             `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Status      *model.TaskStatus   `json:"status"`
	Priority    *model.TaskPriority `json:"priority"`
	AssigneeID  *string             `json:"assignee_id"`
	DueDate     *int64              `json:"due_date"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), getUserID(c), c.Param("projectId"), service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context(), getUserID(c), c.Param("projectId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tasks)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), getUserID(c), c.Param("taskId"), service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), getUserID(c), c.Param("taskId")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}
