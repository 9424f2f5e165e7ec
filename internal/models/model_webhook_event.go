package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent is the append-only log of inbound provider webhooks. Rows are
// written before any reconciliation runs and are never updated.
type WebhookEvent struct {
	ID         string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider   string         `gorm:"column:provider;type:varchar(32);not null" json:"provider"`
	EventID    string         `gorm:"column:event_id;type:varchar(128);index" json:"event_id"`
	Type       string         `gorm:"column:type;type:varchar(64);not null;index" json:"type"`
	TraceID    string         `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	ReceivedAt time.Time      `gorm:"column:received_at;not null" json:"received_at"`
	Data       datatypes.JSON `gorm:"column:data;type:jsonb" json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
