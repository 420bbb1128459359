package domain

// Status is the lifecycle status of a document, owned by the upstream job
// source and driven by this worker.
type Status string

const (
	StatusNotFound      Status = "not_found"
	StatusDownloaded    Status = "downloaded"
	StatusLocked        Status = "locked"
	StatusOCRInProgress Status = "ocr_in_progress"
	StatusOCRDone       Status = "ocr_done"
	StatusFailed        Status = "ocr_failed"
)

// Known reports whether s is one of the statuses the worker understands.
// Parameters: none.
// Returns:
//   - bool: true for a recognized lifecycle status.
func (s Status) Known() bool {
	switch s {
	case StatusNotFound, StatusDownloaded, StatusLocked, StatusOCRInProgress, StatusOCRDone, StatusFailed:
		return true
	}
	return false
}

// Keyword is one entry of the keyword list attached to a document.
type Keyword struct {
	Name string `json:"name"`
}

// Document describes one processing attempt as handed out by the job source.
// Immutable once fetched.
type Document struct {
	ID           string    `json:"id"`
	StoragePath  string    `json:"storagePath"`
	Status       Status    `json:"status"`
	Force        bool      `json:"force,omitempty"`
	Keywords     []Keyword `json:"keywords,omitempty"`
	KeywordsHash string    `json:"keywordsHash,omitempty"`
}
