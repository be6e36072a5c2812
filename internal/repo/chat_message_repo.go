package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/projdesk/internal/model"
	"github.com/xxxsen/projdesk/internal/pkg/dbutil"
)

type ChatMessageRepo struct {
	db *sql.DB
}

func NewChatMessageRepo(db *sql.DB) *ChatMessageRepo {
	return &ChatMessageRepo{db: db}
}

// CreateBatch writes all messages with one multi-row INSERT, in slice order.
func (r *ChatMessageRepo) CreateBatch(ctx context.Context, msgs []model.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data = append(data, map[string]interface{}{
			"id":         msg.ID,
			"project_id": msg.ProjectID,
			"user_id":    msg.UserID,
			"content":    msg.Content,
			"role":       string(msg.Role),
			"ctime":      msg.Ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("chat_messages", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatMessageRepo) ListByProject(ctx context.Context, projectID string) ([]model.ChatMessage, error) {
	where := map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "ctime asc, seq asc",
	}
	sqlStr, args, err := builder.BuildSelect("chat_messages", where, []string{"id", "project_id", "user_id", "content", "role", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	msgs := make([]model.ChatMessage, 0)
	for rows.Next() {
		var msg model.ChatMessage
		var role string
		if err := rows.Scan(&msg.ID, &msg.ProjectID, &msg.UserID, &msg.Content, &role, &msg.Ctime); err != nil {
			return nil, err
		}
		msg.Role = model.ChatRole(role)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
