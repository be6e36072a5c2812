package model

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

func (r ChatRole) Valid() bool {
	return r == ChatRoleUser || r == ChatRoleAssistant
}

type ChatMessage struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	UserID    string   `json:"user_id"`
	Content   string   `json:"content"`
	Role      ChatRole `json:"role"`
	Ctime     int64    `json:"ctime"`
}
