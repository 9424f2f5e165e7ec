package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/models"
)

type webhookEventRepo struct {
	db *gorm.DB
}

func NewWebhookEventStore(db *gorm.DB) repository.WebhookEventStore {
	return &webhookEventRepo{db: db}
}

func (r *webhookEventRepo) Append(ctx context.Context, e *models.WebhookEvent) error {
	ensureID(&e.ID)
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("append webhook event %s: %w", e.EventID, err)
	}
	return nil
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditStore(db *gorm.DB) repository.AuditStore {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, e *models.AuditLog) error {
	ensureID(&e.ID)
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("append audit log %s: %w", e.Action, err)
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, q repository.AuditQuery) ([]*models.AuditLog, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if len(q.Actions) > 0 {
		tx = tx.Where("action IN ?", q.Actions)
	}
	if q.ActorID != "" {
		tx = tx.Where("actor_id = ?", q.ActorID)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	if q.Size <= 0 {
		q.Size = 20
	}
	var rows []*models.AuditLog
	if err := tx.Order("created_at DESC").Offset(q.From).Limit(q.Size).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return rows, total, nil
}
