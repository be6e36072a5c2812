package model

// CachedEmbedding is a vector memoized per (model, task type, content hash).
type CachedEmbedding struct {
	ContentHash string    `json:"content_hash"`
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}

func (c *CachedEmbedding) Dims() int {
	if c == nil {
		return 0
	}
	return len(c.Embedding)
}
