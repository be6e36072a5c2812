package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/pkg/response"
	"github.com/xxxsen/projdesk/internal/service"
)

type ProjectAPI interface {
	Create(ctx context.Context, userID string, in service.ProjectInput) (*model.Project, error)
	List(ctx context.Context, userID string) ([]model.Project, error)
	Get(ctx context.Context, userID, projectID string) (*model.Project, error)
	Update(ctx context.Context, userID, projectID string, in service.ProjectInput) (*model.Project, error)
	Delete(ctx context.Context, userID, projectID string) error
}

type ProjectHandler struct {
	projects ProjectAPI
}

func NewProjectHandler(projects ProjectAPI) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   *int64 `json:"start_date"`
	EndDate     *int64 `json:"end_date"`
}

func (r projectRequest) input() service.ProjectInput {
	return service.ProjectInput{
		Name:        r.Name,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	project, err := h.projects.Create(c.Request.Context(), getUserID(c), req.input())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, projects)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), getUserID(c), c.Param("projectId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	project, err := h.projects.Update(c.Request.Context(), getUserID(c), c.Param("projectId"), req.input())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), getUserID(c), c.Param("projectId")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}
