package generatedresumes

import "time"

// GeneratedResume is a rendered tailored résumé kept in the object store.
type GeneratedResume struct {
	ID          string    `json:"id"`
	SessionHash string    `json:"-"`
	FileName    string    `json:"fileName"`
	StorageKey  string    `json:"storageKey"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}
