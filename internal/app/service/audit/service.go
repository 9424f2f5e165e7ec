package audit

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/logctx"
)

type Entry struct {
	Action     models.AuditAction
	ActorID    string
	TargetType string
	TargetID   string
	Details    map[string]any
}

type Service struct {
	store repository.AuditStore
	gate  permission.Gate
	log   *zap.SugaredLogger
}

func New(store repository.AuditStore, gate permission.Gate, log *zap.SugaredLogger) *Service {
	return &Service{store: store, gate: gate, log: log}
}

// Record appends one audit entry. Failures are logged and returned so callers
// that must not lose history can react.
func (s *Service) Record(ctx context.Context, e Entry) error {
	row := &models.AuditLog{
		Action:     e.Action,
		ActorID:    e.ActorID,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Details:    datatypes.JSONMap(e.Details),
	}
	if err := s.store.Append(ctx, row); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("audit_log_save_failed", "action", e.Action, "target_id", e.TargetID, "error", err)
		return err
	}
	return nil
}

// Recent returns entries newest first. Internal callers only; no permission check.
func (s *Service) Recent(ctx context.Context, q repository.AuditQuery) ([]*models.AuditLog, int64, error) {
	return s.store.List(ctx, q)
}

type ListRequest struct {
	Actions []models.AuditAction `form:"action"`
	ActorID string               `form:"actor_id"`
	From    int                  `form:"from"`
	Size    int                  `form:"size"`
}

type ListResponse struct {
	Items []*models.AuditLog `json:"items"`
	Total int64              `json:"total"`
}

// List is the admin read path and requires VIEW_AUDIT_LOGS.
func (s *Service) List(ctx context.Context, actorID string, req ListRequest) (*ListResponse, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ViewAuditLogs); err != nil {
		return nil, err
	}
	rows, total, err := s.store.List(ctx, repository.AuditQuery{
		Actions: req.Actions,
		ActorID: req.ActorID,
		From:    req.From,
		Size:    req.Size,
	})
	if err != nil {
		return nil, err
	}
	return &ListResponse{Items: rows, Total: total}, nil
}

// Elapsed is the duration field layout used in sync audit details.
func Elapsed(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

var Module = fx.Options(
	fx.Provide(New),
)
