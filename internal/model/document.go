package model

// DocumentUpload records a file that was archived and ingested.
type DocumentUpload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FileKey   string `json:"file_key"`
	Size      int64  `json:"size"`
	Chunks    int    `json:"chunks"`
	EmbedTier string `json:"embed_tier"`
	Ctime     int64  `json:"ctime"`
}
