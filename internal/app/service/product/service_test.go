package product

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/repository/memrepo"
	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/types"
)

func newTestService(t *testing.T) (*Service, *memrepo.Store) {
	t.Helper()
	store := memrepo.New()
	store.PutAdmin(&models.AdminUser{ID: "root", Role: models.AdminRoleSuperAdmin, IsActive: true})
	store.PutAdmin(&models.AdminUser{ID: "viewer", Role: models.AdminRoleSupport, IsActive: true,
		Permissions: datatypes.JSONSlice[string]{string(permission.ViewProducts)}})
	log := zap.NewNop().Sugar()
	gate := permission.NewService(store.Admins(), log)
	svc := NewService(store.Products(), store.Subscriptions(), gate, audit.New(store.AuditLogs(), gate, log), log)
	return svc, store
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   string
		req     UpsertRequest
		wantErr error
	}{
		{name: "ok", actor: "root", req: UpsertRequest{Name: "Pro", Features: []string{"a"}}},
		{name: "blank name", actor: "root", req: UpsertRequest{Name: "  "}, wantErr: ErrInvalid},
		{name: "long feature", actor: "root", req: UpsertRequest{Name: "X", Features: []string{strings.Repeat("f", 201)}}, wantErr: ErrInvalid},
		{name: "viewer cannot manage", actor: "viewer", req: UpsertRequest{Name: "Y"}, wantErr: permission.ErrAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			p, err := svc.Create(ctx, tt.actor, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, p.ID)
			require.True(t, p.IsActive)
		})
	}
}

func TestCreate_NameTaken(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "root", UpsertRequest{Name: "Pro"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "root", UpsertRequest{Name: " Pro "})
	require.ErrorIs(t, err, ErrNameTaken)

	trail := store.AuditTrail()
	require.Len(t, trail, 1)
	require.Equal(t, models.AuditActionProductCreated, trail[0].Action)
}

func TestUpdate_KeepsSyncSnapshot(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	p := &models.Product{Name: "Pro", PolarProductID: "prod_1", IsActive: true,
		Metadata: datatypes.JSONMap{MetadataLastSync: map[string]any{"name": "Pro"}}}
	require.NoError(t, store.Products().Create(ctx, p))

	inactive := false
	got, err := svc.Update(ctx, "root", p.ID, UpsertRequest{
		Name:     "Pro Plus",
		IsActive: &inactive,
		Metadata: map[string]any{"tier": "gold"},
	})
	require.NoError(t, err)
	require.Equal(t, "Pro Plus", got.Name)
	require.False(t, got.IsActive)
	require.Equal(t, "gold", got.Metadata["tier"])
	require.Contains(t, got.Metadata, MetadataLastSync)

	_, err = svc.Update(ctx, "root", "missing", UpsertRequest{Name: "Z"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete_RefusesWhenInUse(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	p := &models.Product{Name: "Pro", PolarProductID: "prod_1", IsActive: true}
	require.NoError(t, store.Products().Create(ctx, p))
	require.NoError(t, store.Subscriptions().Create(ctx, &models.Subscription{
		PolarID: "sub_1", PolarProductID: "prod_1", Status: types.SubscriptionStatusActive,
	}))

	err := svc.Delete(ctx, "root", p.ID)
	require.ErrorIs(t, err, ErrProductInUse)

	got, err := svc.Deactivate(ctx, "root", p.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	list, err := svc.List(ctx, "viewer", false)
	require.NoError(t, err)
	require.Empty(t, list)

	local := &models.Product{Name: "Local", IsActive: true}
	require.NoError(t, store.Products().Create(ctx, local))
	require.NoError(t, svc.Delete(ctx, "root", local.ID))
	_, err = store.Products().Get(ctx, local.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
