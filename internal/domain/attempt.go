package domain

import "time"

// AttemptOutcome is the terminal outcome of one processing attempt.
type AttemptOutcome string

const (
	AttemptOutcomeDone   AttemptOutcome = "done"
	AttemptOutcomeFailed AttemptOutcome = "failed"
)

// Attempt is the worker-local journal record of one processing attempt.
// Best-effort observability; the job source remains the owner of status.
type Attempt struct {
	ID            string         `gorm:"type:text;primaryKey" json:"id"`
	DocumentID    string         `gorm:"type:text;not null;index" json:"document_id"`
	WorkerID      string         `gorm:"type:text;not null" json:"worker_id"`
	Outcome       AttemptOutcome `gorm:"type:text;index" json:"outcome"`
	Quality       float64        `json:"quality"`
	NumPages      int            `json:"num_pages"`
	NumKwds       int            `json:"num_kwds"`
	ForcedRotate  bool           `json:"forced_rotate"`
	Error         string         `json:"error,omitempty"`
	DurationMs    int64          `json:"duration_ms"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Attempt.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Attempt) TableName() string {
	return "attempts"
}
