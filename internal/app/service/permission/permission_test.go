package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/internal/app/repository/memrepo"
	"github.com/fatflowers/polaradmin/internal/models"
)

func TestRequireAdminPermission(t *testing.T) {
	store := memrepo.New()
	store.PutAdmin(&models.AdminUser{ID: "root", Role: models.AdminRoleSuperAdmin, IsActive: true})
	store.PutAdmin(&models.AdminUser{ID: "ops", Role: models.AdminRoleAdmin, IsActive: true,
		Permissions: datatypes.JSONSlice[string]{string(ViewSubscriptions)}})
	store.PutAdmin(&models.AdminUser{ID: "gone", Role: models.AdminRoleSuperAdmin, IsActive: false})
	svc := NewService(store.Admins(), zap.NewNop().Sugar())

	tests := []struct {
		name    string
		actor   string
		perm    Permission
		allowed bool
	}{
		{"super admin holds everything", "root", ManageSettings, true},
		{"explicit permission", "ops", ViewSubscriptions, true},
		{"missing permission", "ops", ManageProducts, false},
		{"inactive super admin", "gone", ViewSubscriptions, false},
		{"unknown actor", "nobody", ViewSubscriptions, false},
		{"empty actor", "", ViewSubscriptions, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin, err := svc.RequireAdminPermission(context.Background(), tt.actor, tt.perm)
			if tt.allowed {
				require.NoError(t, err)
				require.Equal(t, tt.actor, admin.ID)
				return
			}
			require.ErrorIs(t, err, ErrAccessDenied)
			var denied *AccessDeniedError
			require.True(t, errors.As(err, &denied))
			require.Equal(t, tt.perm, denied.Permission)
			require.Nil(t, admin)
		})
	}
}

func TestHas(t *testing.T) {
	require.False(t, Has(nil, ViewAnalytics))
	for _, p := range All {
		require.True(t, Has(&models.AdminUser{Role: models.AdminRoleSuperAdmin, IsActive: true}, p))
	}
}
