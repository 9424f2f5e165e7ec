package polar_sync

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/logctx"
	"github.com/fatflowers/polaradmin/pkg/tool"
)

const (
	recentSyncLimit = 10
	orgCacheTTL     = time.Minute
)

var finishedSyncActions = []models.AuditAction{
	models.AuditActionPolarSyncSuccess,
	models.AuditActionPolarSyncPartial,
	models.AuditActionPolarSyncFailed,
}

type SyncStatus struct {
	TotalSubscriptions  int64              `json:"totalSubscriptions"`
	ActiveSubscriptions int64              `json:"activeSubscriptions"`
	RecentSyncs         []*models.AuditLog `json:"recentSyncs"`
	LastSyncTime        *time.Time         `json:"lastSyncTime"`
}

func (s *Service) GetSyncStatus(ctx context.Context, adminID string) (*SyncStatus, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, adminID, permission.ViewSubscriptions); err != nil {
		return nil, err
	}
	byStatus, err := s.subs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := &SyncStatus{}
	for status, n := range byStatus {
		out.TotalSubscriptions += n
		if status.Active() {
			out.ActiveSubscriptions += n
		}
	}
	recent, _, err := s.audit.Recent(ctx, repository.AuditQuery{Actions: finishedSyncActions, Size: recentSyncLimit})
	if err != nil {
		return nil, err
	}
	out.RecentSyncs = recent
	if len(recent) > 0 {
		t := recent[0].CreatedAt
		out.LastSyncTime = &t
	}
	return out, nil
}

type ConnectionStatus struct {
	HasCredentials   bool   `json:"hasCredentials"`
	TokenConfigured  bool   `json:"tokenConfigured"`
	OrganizationID   string `json:"organizationId"`
	Connected        bool   `json:"connected"`
	OrganizationName string `json:"organizationName,omitempty"`
	Error            string `json:"error,omitempty"`
}

// CheckPolarConnection reports configuration presence and, when credentials
// exist, whether the organization can be fetched.
func (s *Service) CheckPolarConnection(ctx context.Context, adminID string) (*ConnectionStatus, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, adminID, permission.ViewSubscriptions); err != nil {
		return nil, err
	}
	cfg := s.client.Config()
	out := &ConnectionStatus{
		HasCredentials:  cfg.HasCredentials(),
		TokenConfigured: cfg.AccessToken != "",
		OrganizationID:  tool.MaskID(cfg.OrganizationID, 8),
	}
	if !out.HasCredentials {
		return out, nil
	}
	if name, ok := s.orgs.Get(cfg.OrganizationID); ok {
		out.Connected = true
		out.OrganizationName = name.(string)
		return out, nil
	}
	org, err := s.client.GetOrganization(ctx)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("polar_connection_check_failed", "error", err)
		out.Error = err.Error()
		return out, nil
	}
	// Failures are not cached.
	s.orgs.Set(cfg.OrganizationID, org.Name, cache.DefaultExpiration)
	out.Connected = true
	out.OrganizationName = org.Name
	return out, nil
}
