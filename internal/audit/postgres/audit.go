package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal/audit"
)

// AuditRepository implements audit.Sink and audit.Reader using GORM.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends the event using the caller's transaction handle.
func (r *AuditRepository) Record(ctx context.Context, tx *gorm.DB, ev *audit.Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return tx.WithContext(ctx).Create(ev).Error
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]*audit.Event, error) {
	var events []*audit.Event
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("occurred_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, err
}
