package model

type Document struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
	StorageKey string    `json:"storage_key"`
	Ctime      int64     `json:"ctime"`
}

func (d *Document) HasEmbedding() bool {
	return d != nil && len(d.Embedding) > 0
}
