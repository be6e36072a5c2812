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

type ProjectInput struct {
	Name        string
	Description string
	StartDate   *int64
	EndDate     *int64
}

type ProjectService struct {
	projects ProjectRepo
	users    UserRepo
	now      func() time.Time
}

func NewProjectService(projects ProjectRepo, users UserRepo) *ProjectService {
	return &ProjectService{projects: projects, users: users, now: time.Now}
}

func (s *ProjectService) Create(ctx context.Context, userID string, in ProjectInput) (*model.Project, error) {
	if err := validateProject(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrUnauthorized
		}
		return nil, err
	}
	now := s.now().UnixMilli()
	project := &model.Project{
		ID:          newID(),
		UserID:      userID,
		CompanyID:   user.CompanyID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, appErr.Wrap(appErr.ErrDatabase, err)
	}
	logutil.GetLogger(ctx).Info("project created", zap.String("project_id", project.ID))
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]model.Project, error) {
	return s.projects.List(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	return s.projects.GetByID(ctx, userID, projectID)
}

func (s *ProjectService) Update(ctx context.Context, userID, projectID string, in ProjectInput) (*model.Project, error) {
	if err := validateProject(in); err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	project.Name = strings.TrimSpace(in.Name)
	project.Description = in.Description
	project.StartDate = in.StartDate
	project.EndDate = in.EndDate
	project.Mtime = s.now().UnixMilli()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	return s.projects.Delete(ctx, userID, projectID)
}

func validateProject(in ProjectInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return appErr.ErrInvalid
	}
	if in.StartDate != nil && in.EndDate != nil && *in.EndDate < *in.StartDate {
		return appErr.ErrInvalid
	}
	return nil
}
