package model

// EmbeddingCache is a remote embedding keyed by model, task type and the
// sha256 of the embedded text.
type EmbeddingCache struct {
	Model     string    `json:"model"`
	TaskType  string    `json:"task_type"`
	Hash      string    `json:"hash"`
	Embedding []float32 `json:"embedding"`
	Ctime     int64     `json:"ctime"`
}
