package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/pkg/dbutil"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

var projectColumns = []string{"id", "user_id", "company_id", "name", "description", "start_date", "end_date", "ctime", "mtime"}

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, project *model.Project) error {
	data := map[string]interface{}{
		"id":          project.ID,
		"user_id":     project.UserID,
		"company_id":  project.CompanyID,
		"name":        project.Name,
		"description": project.Description,
		"ctime":       project.Ctime,
		"mtime":       project.Mtime,
	}
	if project.StartDate != nil {
		data["start_date"] = *project.StartDate
	}
	if project.EndDate != nil {
		data["end_date"] = *project.EndDate
	}
	sqlStr, args, err := builder.BuildInsert("projects", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ProjectRepo) GetByID(ctx context.Context, userID, projectID string) (*model.Project, error) {
	where := map[string]interface{}{
		"id":      projectID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("projects", where, projectColumns)
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
	return scanProject(rows)
}

func (r *ProjectRepo) List(ctx context.Context, userID string) ([]model.Project, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("projects", where, projectColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Project, 0)
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *ProjectRepo) Update(ctx context.Context, project *model.Project) error {
	where := map[string]interface{}{
		"id":      project.ID,
		"user_id": project.UserID,
	}
	update := map[string]interface{}{
		"name":        project.Name,
		"description": project.Description,
		"start_date":  nullableInt64(project.StartDate),
		"end_date":    nullableInt64(project.EndDate),
		"mtime":       project.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("projects", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffectingOne(ctx, r.db, sqlStr, args)
}

func (r *ProjectRepo) Delete(ctx context.Context, userID, projectID string) error {
	sqlStr, args, err := builder.BuildDelete("projects", map[string]interface{}{"id": projectID, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffectingOne(ctx, r.db, sqlStr, args)
}

func scanProject(rows *sql.Rows) (*model.Project, error) {
	var item model.Project
	var start, end sql.NullInt64
	if err := rows.Scan(&item.ID, &item.UserID, &item.CompanyID, &item.Name, &item.Description, &start, &end, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	item.StartDate = int64Ptr(start)
	item.EndDate = int64Ptr(end)
	return &item, nil
}

func execAffectingOne(ctx context.Context, db *sql.DB, sqlStr string, args []interface{}) error {
	res, err := db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func nullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}
