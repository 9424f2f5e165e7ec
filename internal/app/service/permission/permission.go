// Package permission is the admin authorization gate every admin operation
// goes through.
package permission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/logctx"
)

type Permission string

const (
	ViewSubscriptions   Permission = "VIEW_SUBSCRIPTIONS"
	ManageSubscriptions Permission = "MANAGE_SUBSCRIPTIONS"
	ViewProducts        Permission = "VIEW_PRODUCTS"
	ManageProducts      Permission = "MANAGE_PRODUCTS"
	ViewAnalytics       Permission = "VIEW_ANALYTICS"
	ViewAuditLogs       Permission = "VIEW_AUDIT_LOGS"
	ManageSettings      Permission = "MANAGE_SETTINGS"
)

var All = []Permission{
	ViewSubscriptions,
	ManageSubscriptions,
	ViewProducts,
	ManageProducts,
	ViewAnalytics,
	ViewAuditLogs,
	ManageSettings,
}

var ErrAccessDenied = errors.New("access denied")

// AccessDeniedError names who was denied what. It matches ErrAccessDenied.
type AccessDeniedError struct {
	ActorID    string
	Permission Permission
	Reason     string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s lacks %s (%s)", e.ActorID, e.Permission, e.Reason)
}

func (e *AccessDeniedError) Unwrap() error { return ErrAccessDenied }

// Gate authorizes an admin actor for one permission.
type Gate interface {
	RequireAdminPermission(ctx context.Context, actorID string, p Permission) (*models.AdminUser, error)
}

type Service struct {
	admins repository.AdminStore
	log    *zap.SugaredLogger
}

func NewService(admins repository.AdminStore, log *zap.SugaredLogger) *Service {
	return &Service{admins: admins, log: log}
}

// Has reports whether admin holds p. Super admins hold every permission;
// inactive admins hold none.
func Has(admin *models.AdminUser, p Permission) bool {
	if admin == nil || !admin.IsActive {
		return false
	}
	if admin.Role == models.AdminRoleSuperAdmin {
		return true
	}
	return lo.Contains([]string(admin.Permissions), string(p))
}

func (s *Service) RequireAdminPermission(ctx context.Context, actorID string, p Permission) (*models.AdminUser, error) {
	lg := logctx.FromCtx(ctx, s.log)
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, &AccessDeniedError{Permission: p, Reason: "no actor"}
	}
	admin, err := s.admins.GetAdmin(ctx, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		lg.Warnw("permission_denied", "actor_id", actorID, "permission", p, "reason", "not an admin")
		return nil, &AccessDeniedError{ActorID: actorID, Permission: p, Reason: "not an admin"}
	}
	if err != nil {
		return nil, fmt.Errorf("load admin %s: %w", actorID, err)
	}
	if !admin.IsActive {
		lg.Warnw("permission_denied", "actor_id", actorID, "permission", p, "reason", "inactive")
		return nil, &AccessDeniedError{ActorID: actorID, Permission: p, Reason: "inactive"}
	}
	if !Has(admin, p) {
		lg.Warnw("permission_denied", "actor_id", actorID, "permission", p, "role", admin.Role)
		return nil, &AccessDeniedError{ActorID: actorID, Permission: p, Reason: "missing permission"}
	}
	return admin, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(func(s *Service) Gate { return s }),
)
