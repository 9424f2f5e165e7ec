package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionPolarSyncStart           AuditAction = "POLAR_SYNC_START"
	AuditActionPolarSyncSuccess         AuditAction = "POLAR_SYNC_SUCCESS"
	AuditActionPolarSyncPartial         AuditAction = "POLAR_SYNC_PARTIAL"
	AuditActionPolarSyncFailed          AuditAction = "POLAR_SYNC_FAILED"
	AuditActionProductCreated           AuditAction = "PRODUCT_CREATED"
	AuditActionProductUpdated           AuditAction = "PRODUCT_UPDATED"
	AuditActionProductDeactivated       AuditAction = "PRODUCT_DEACTIVATED"
	AuditActionProductDeleted           AuditAction = "PRODUCT_DELETED"
	AuditActionSubscriptionUserAssigned AuditAction = "SUBSCRIPTION_USER_ASSIGNED"
)

// AuditLog is an append-only trail entry.
type AuditLog struct {
	ID         string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Action     AuditAction       `gorm:"column:action;type:varchar(64);not null;index" json:"action"`
	ActorID    string            `gorm:"column:actor_id;type:varchar(64);index" json:"actor_id"`
	TargetType string            `gorm:"column:target_type;type:varchar(64);index:idx_audit_logs_target" json:"target_type"`
	TargetID   string            `gorm:"column:target_id;type:varchar(128);index:idx_audit_logs_target" json:"target_id"`
	Details    datatypes.JSONMap `gorm:"column:details;type:jsonb" json:"details"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
