package subscription

import (
	"context"
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
		Permissions: datatypes.JSONSlice[string]{string(permission.ViewSubscriptions)}})
	log := zap.NewNop().Sugar()
	gate := permission.NewService(store.Admins(), log)
	svc := NewService(store.Subscriptions(), store.Users(), gate, audit.New(store.AuditLogs(), gate, log), log)
	return svc, store
}

func TestScanSubscriptions(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	for _, s := range []*models.Subscription{
		{PolarID: "a", Status: types.SubscriptionStatusActive, Amount: 1000},
		{PolarID: "b", Status: types.SubscriptionStatusCanceled, Amount: 2000},
		{PolarID: "c", Status: types.SubscriptionStatusActive, Amount: 3000},
	} {
		require.NoError(t, store.Subscriptions().Create(ctx, s))
	}

	resp, err := svc.ScanSubscriptions(ctx, "viewer", &ScanSubscriptionsRequest{
		Filters: []*types.CommonFilter{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"active"}}},
		SortBy:  "amount",
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, resp.Total)
	require.Equal(t, "c", resp.Items[0].PolarID)

	_, err = svc.ScanSubscriptions(ctx, "viewer", &ScanSubscriptionsRequest{
		Filters: []*types.CommonFilter{{Field: "metadata", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
	})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.ScanSubscriptions(ctx, "viewer", &ScanSubscriptionsRequest{SortBy: "1; drop"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.ScanSubscriptions(ctx, "nobody", &ScanSubscriptionsRequest{})
	require.ErrorIs(t, err, permission.ErrAccessDenied)
}

func TestAssignUser(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.PutUser(&models.User{ID: "u_1", Email: "a@example.com"})
	require.NoError(t, store.Subscriptions().Create(ctx, &models.Subscription{PolarID: "sub_1", Status: types.SubscriptionStatusActive}))

	_, err := svc.AssignUser(ctx, "viewer", AssignUserRequest{PolarID: "sub_1", UserID: "u_1"})
	require.ErrorIs(t, err, permission.ErrAccessDenied)

	_, err = svc.AssignUser(ctx, "root", AssignUserRequest{PolarID: "sub_1", UserID: "ghost"})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.AssignUser(ctx, "root", AssignUserRequest{PolarID: "sub_x", UserID: "u_1"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	sub, err := svc.AssignUser(ctx, "root", AssignUserRequest{PolarID: "sub_1", UserID: "u_1"})
	require.NoError(t, err)
	require.Equal(t, "u_1", *sub.UserID)

	trail := store.AuditTrail()
	require.Len(t, trail, 1)
	require.Equal(t, models.AuditActionSubscriptionUserAssigned, trail[0].Action)
	require.Equal(t, "sub_1", trail[0].TargetID)
	require.Equal(t, "root", trail[0].ActorID)
}
