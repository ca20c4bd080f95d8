package audit

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Event is one immutable row in the transition audit trail. Rows are only
// ever appended; there is no update or delete path.
type Event struct {
	ID          int64             `json:"id" gorm:"primaryKey"`
	EntityType  string            `json:"entity_type" gorm:"column:entity_type;not null;index:idx_audit_entity"`
	EntityID    int64             `json:"entity_id" gorm:"column:entity_id;not null;index:idx_audit_entity"`
	EventType   string            `json:"event_type" gorm:"column:event_type;not null"`
	ActorUserID int64             `json:"actor_user_id" gorm:"column:actor_user_id;not null"`
	OccurredAt  time.Time         `json:"occurred_at" gorm:"column:occurred_at;not null"`
	Meta        map[string]string `json:"meta" gorm:"column:meta;serializer:json"`
}

func (Event) TableName() string {
	return "audit_events"
}

// Sink records an event inside the caller's open transaction, so the audit
// write commits or rolls back together with the state change.
type Sink interface {
	Record(ctx context.Context, tx *gorm.DB, ev *Event) error
}

// Reader queries the trail for one entity.
type Reader interface {
	ListByEntity(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]*Event, error)
}

// NoopSink drops events. Useful in tests that do not assert on the trail.
type NoopSink struct{}

func (NoopSink) Record(ctx context.Context, tx *gorm.DB, ev *Event) error { return nil }
