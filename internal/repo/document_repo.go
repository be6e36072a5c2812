package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/pkg/dbutil"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
)

var documentColumns = []string{"id", "project_id", "user_id", "name", "type", "size", "content", "storage_key", "ctime"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"project_id":  doc.ProjectID,
		"user_id":     doc.UserID,
		"name":        doc.Name,
		"type":        doc.Type,
		"size":        doc.Size,
		"content":     doc.Content,
		"storage_key": doc.StorageKey,
		"ctime":       doc.Ctime,
	}
	if doc.HasEmbedding() {
		data["embedding"] = pgvector.NewVector(doc.Embedding)
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		if dbutil.IsForeignKeyViolation(err) {
			return appErr.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns)
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
	return scanDocument(rows)
}

// ListByProject returns the caller's documents for a project, newest first.
func (r *DocumentRepo) ListByProject(ctx context.Context, userID, projectID string) ([]model.Document, error) {
	where := map[string]interface{}{
		"project_id": projectID,
		"user_id":    userID,
		"_orderby":   "ctime desc, seq desc",
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// ListContents returns the text of every document in the project in insertion order.
func (r *DocumentRepo) ListContents(ctx context.Context, projectID string) ([]string, error) {
	where := map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "seq asc",
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, []string{"content"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.queryContents(ctx, sqlStr, args)
}

// SearchContents returns up to topK document texts ordered by cosine distance to embedding.
func (r *DocumentRepo) SearchContents(ctx context.Context, projectID string, embedding []float32, topK int) ([]string, error) {
	const query = `
		SELECT content
		FROM documents
		WHERE project_id = $1 AND embedding IS NOT NULL AND vector_dims(embedding) = $2
		ORDER BY embedding <=> $3
		LIMIT $4
	`
	return r.queryContents(ctx, query, []interface{}{projectID, len(embedding), pgvector.NewVector(embedding), topK})
}

func (r *DocumentRepo) queryContents(ctx context.Context, sqlStr string, args []interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	contents := make([]string, 0)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, userID, docID string) error {
	sqlStr, args, err := builder.BuildDelete("documents", map[string]interface{}{"id": docID, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffectingOne(ctx, r.db, sqlStr, args)
}

func (r *DocumentRepo) ListMissingEmbedding(ctx context.Context, limit int) ([]model.Document, error) {
	const query = `
		SELECT id, project_id, user_id, name, type, size, content, storage_key, ctime
		FROM documents
		WHERE embedding IS NULL
		ORDER BY seq ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) UpdateEmbedding(ctx context.Context, docID string, embedding []float32) error {
	const query = `UPDATE documents SET embedding = $1 WHERE id = $2 AND embedding IS NULL`
	_, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), docID)
	return err
}

func scanDocument(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	if err := rows.Scan(&doc.ID, &doc.ProjectID, &doc.UserID, &doc.Name, &doc.Type, &doc.Size, &doc.Content, &doc.StorageKey, &doc.Ctime); err != nil {
		return nil, err
	}
	return &doc, nil
}
