package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/andrei/docscan/internal/domain"
)

// AttemptRepository handles attempt journal operations.
type AttemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository creates a new AttemptRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *AttemptRepository: repository instance bound to db.
func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Create inserts a new attempt record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - attempt: attempt record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *AttemptRepository) Create(ctx context.Context, attempt *domain.Attempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// Update updates an existing attempt record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - attempt: attempt record with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *AttemptRepository) Update(ctx context.Context, attempt *domain.Attempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

// ListByDocument retrieves attempts for one document, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - documentID: document identifier.
//   - limit: maximum number of records; 0 means no limit.
// Returns:
//   - []domain.Attempt: matching attempt records.
//   - error: non-nil if the query fails.
func (r *AttemptRepository) ListByDocument(ctx context.Context, documentID string, limit int) ([]domain.Attempt, error) {
	var attempts []domain.Attempt
	q := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

// Stats aggregates journal counters for the status endpoint.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - since: earliest completion time to include.
// Returns:
//   - map[string]int64: counts keyed by outcome.
//   - error: non-nil if the query fails.
func (r *AttemptRepository) Stats(ctx context.Context, since time.Time) (map[string]int64, error) {
	type row struct {
		Outcome string
		Count   int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.Attempt{}).
		Select("outcome, count(*) as count").
		Where("started_at >= ?", since).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(rows))
	for _, rw := range rows {
		stats[rw.Outcome] = rw.Count
	}
	return stats, nil
}
