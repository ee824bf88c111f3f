package models

import (
	"encoding/json"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/google/uuid"
)

// OutboxEvent persists a domain event in the same transaction as the state
// change it describes. A publisher drains unpublished rows to Pub/Sub.
type OutboxEvent struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;size:64;not null;index:idx_outbox_aggregate" json:"aggregate_type"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null;index:idx_outbox_aggregate" json:"aggregate_id"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;size:64;not null" json:"event_type"`

	Payload json.RawMessage `gorm:"column:payload;type:jsonb;not null" json:"payload"`

	PublishedAt *time.Time `gorm:"column:published_at;index" json:"published_at,omitempty"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError   string     `gorm:"column:last_error;type:text" json:"last_error,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }
