package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/internal/app/repository/memrepo"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/models"
)

func TestListRequiresPermissionAndFilters(t *testing.T) {
	store := memrepo.New()
	store.PutAdmin(&models.AdminUser{ID: "auditor", Role: models.AdminRoleSupport, IsActive: true,
		Permissions: datatypes.JSONSlice[string]{string(permission.ViewAuditLogs)}})
	store.PutAdmin(&models.AdminUser{ID: "intern", Role: models.AdminRoleSupport, IsActive: true})
	log := zap.NewNop().Sugar()
	svc := New(store.AuditLogs(), permission.NewService(store.Admins(), log), log)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, Entry{Action: models.AuditActionPolarSyncStart, ActorID: "a1"}))
	require.NoError(t, svc.Record(ctx, Entry{Action: models.AuditActionPolarSyncSuccess, ActorID: "a1", Details: map[string]any{"created": 2}}))
	require.NoError(t, svc.Record(ctx, Entry{Action: models.AuditActionProductCreated, ActorID: "a2"}))

	_, err := svc.List(ctx, "intern", ListRequest{})
	require.ErrorIs(t, err, permission.ErrAccessDenied)

	resp, err := svc.List(ctx, "auditor", ListRequest{ActorID: "a1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, resp.Total)
	require.Equal(t, models.AuditActionPolarSyncSuccess, resp.Items[0].Action)

	resp, err = svc.List(ctx, "auditor", ListRequest{Actions: []models.AuditAction{models.AuditActionProductCreated}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
}
