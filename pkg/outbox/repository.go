package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ErrNotParked is returned by Requeue when the row is missing, published or still queued.
var ErrNotParked = errors.New("outbox event is not parked")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchUnpublished returns the oldest rows that are neither published, parked nor out of attempts.
// maxAttempts <= 0 disables the attempt filter.
func (r *Repository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []models.OutboxEvent
	q := r.db.WithContext(ctx).Where("published_at IS NULL AND parked_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	err := q.Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
			"last_error":   nil,
		}).Error
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, err error) error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    msg,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// Park takes the row out of the publish queue for manual inspection. The
// attempt count is raised to maxAttempts so older publishers skip it too.
func (r *Repository) Park(ctx context.Context, id uuid.UUID, maxAttempts int, err error) error {
	msg := "parked"
	if err != nil {
		msg = err.Error()
	}
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND published_at IS NULL", id).
		Updates(map[string]any{
			"last_error":    msg,
			"parked_at":     time.Now().UTC(),
			"attempt_count": gorm.Expr("CASE WHEN attempt_count < ? THEN ? ELSE attempt_count END", maxAttempts, maxAttempts),
		}).Error
}

// Requeue clears the parked marker and resets attempts so the row is published again.
func (r *Repository) Requeue(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND parked_at IS NOT NULL AND published_at IS NULL", id).
		Updates(map[string]any{
			"parked_at":     nil,
			"attempt_count": 0,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotParked
	}
	return nil
}
