package polar_sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/internal/app/repository/memrepo"
	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_webhook"
	"github.com/fatflowers/polaradmin/internal/app/service/webhook_event"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/config"
)

// fakePolar serves the list endpoints from in-memory slices.
type fakePolar struct {
	mu        sync.Mutex
	subs      []map[string]any
	customers []map[string]any
	products  []map[string]any
	status    int
	requests  []string
}

func (f *fakePolar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.Path+"?page="+r.URL.Query().Get("page"))
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"detail":"nope"}`))
		return
	}
	var items []map[string]any
	switch r.URL.Path {
	case "/v1/subscriptions":
		items = f.subs
	case "/v1/customers":
		items = f.customers
	case "/v1/products":
		items = f.products
	case "/v1/organizations/org_12345678":
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "org_12345678", "name": "Acme"})
		return
	default:
		http.NotFound(w, r)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	lo := (page - 1) * limit
	hi := lo + limit
	if lo > len(items) {
		lo = len(items)
	}
	if hi > len(items) {
		hi = len(items)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"items":      items[lo:hi],
		"pagination": map[string]any{"total_count": len(items), "max_page": (len(items) + limit - 1) / limit},
	})
}

func remoteSub(id string, amount int) map[string]any {
	return map[string]any{
		"id":                 id,
		"status":             "active",
		"amount":             amount,
		"currency":           "usd",
		"recurring_interval": "month",
		"customer_id":        "cus_" + id,
		"product_id":         "prod_1",
		"created_at":         "2026-04-01T00:00:00Z",
	}
}

type harness struct {
	svc    *Service
	store  *memrepo.Store
	fake   *fakePolar
	pauses int
}

func newHarness(t *testing.T, creds bool) *harness {
	t.Helper()
	fake := &fakePolar{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.BillingProviderConfig{BaseURL: srv.URL, PageSize: 3, MaxAttempts: 1}
	if creds {
		cfg.AccessToken = "polar_at_x"
		cfg.OrganizationID = "org_12345678"
	}
	store := memrepo.New()
	store.PutAdmin(&models.AdminUser{ID: "root", Role: models.AdminRoleSuperAdmin, IsActive: true})
	store.PutAdmin(&models.AdminUser{ID: "support", Role: models.AdminRoleSupport, IsActive: true})

	log := zap.NewNop().Sugar()
	gate := permission.NewService(store.Admins(), log)
	resolver := polar_webhook.NewEmailUserResolver(store.Users())
	webhooks := polar_webhook.NewService(webhook_event.New(store.WebhookEvents(), log), store.Subscriptions(), resolver, cfg, nil, log)
	client := polar.New(cfg, polar.WithRetryPolicy(polar.RetryPolicy{MaxAttempts: 1, Sleep: func(context.Context, time.Duration) error { return nil }}))

	h := &harness{store: store, fake: fake}
	h.svc = NewService(client, store.Subscriptions(), store.Products(), store.Users(), resolver, webhooks, gate,
		audit.New(store.AuditLogs(), gate, log), nil, log)
	h.svc.sleep = func(context.Context, time.Duration) error {
		h.pauses++
		return nil
	}
	return h
}

func actions(trail []models.AuditLog) []models.AuditAction {
	out := make([]models.AuditAction, 0, len(trail))
	for _, e := range trail {
		out = append(out, e.Action)
	}
	return out
}

func TestSyncPolarData_Idempotent(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		h.fake.subs = append(h.fake.subs, remoteSub(fmt.Sprintf("sub_%d", i), 1000))
	}

	first, err := h.svc.SyncPolarData(ctx, "root", SyncTypeSubscriptions, false)
	require.NoError(t, err)
	require.True(t, first.Success)
	require.Equal(t, 7, first.Created)
	require.Equal(t, 2, h.pauses, "pause between the three pages")

	second, err := h.svc.SyncPolarData(ctx, "root", SyncTypeSubscriptions, false)
	require.NoError(t, err)
	require.True(t, second.Success)
	require.Zero(t, second.Created)
	require.Zero(t, second.Updated)
	require.Equal(t, 7, second.Skipped)
	require.Len(t, h.store.AllSubscriptions(), 7)

	require.Equal(t, []models.AuditAction{
		models.AuditActionPolarSyncStart, models.AuditActionPolarSyncSuccess,
		models.AuditActionPolarSyncStart, models.AuditActionPolarSyncSuccess,
	}, actions(h.store.AuditTrail()))
}

func TestSyncPolarData_ForceUpdateGate(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.fake.subs = []map[string]any{remoteSub("sub_1", 1000)}
	_, err := h.svc.SyncPolarData(ctx, "root", SyncTypeSubscriptions, false)
	require.NoError(t, err)

	h.fake.subs = []map[string]any{remoteSub("sub_1", 2000)}
	res, err := h.svc.SyncPolarData(ctx, "root", SyncTypeSubscriptions, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.Skipped)
	require.EqualValues(t, 1000, h.store.AllSubscriptions()[0].Amount)

	res, err = h.svc.SyncPolarData(ctx, "root", SyncTypeSubscriptions, true)
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.EqualValues(t, 2000, h.store.AllSubscriptions()[0].Amount)
}

func TestSyncPolarData_PartialFailureIsolation(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.svc.client = polar.New(config.BillingProviderConfig{
		BaseURL: h.svc.client.Config().BaseURL, AccessToken: "t", OrganizationID: "org_12345678", PageSize: 10,
	})
	for i := 1; i <= 10; i++ {
		h.fake.subs = append(h.fake.subs, remoteSub(fmt.Sprintf("sub_%d", i), 1000))
	}
	h.store.FailOn(memrepo.OpSubscriptionCreate, "sub_5", errors.New("write conflict"))

	res, err := h.svc.SyncPolarData(ctx, "root", SyncTypeSubscriptions, false)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 9, res.Created)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "sub_5")
	require.Len(t, h.store.AllSubscriptions(), 9)

	trail := h.store.AuditTrail()
	require.Equal(t, models.AuditActionPolarSyncPartial, trail[len(trail)-1].Action)
}

func TestSyncPolarData_FailureIsAResult(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	res, err := h.svc.SyncPolarData(ctx, "root", SyncTypeAll, false)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, res.Error, polar.ErrMissingCredentials.Error())
	require.Empty(t, h.fake.requests)
	require.Equal(t, []models.AuditAction{models.AuditActionPolarSyncStart, models.AuditActionPolarSyncFailed},
		actions(h.store.AuditTrail()))

	h2 := newHarness(t, true)
	h2.fake.status = http.StatusInternalServerError
	res, err = h2.svc.SyncPolarData(ctx, "root", SyncTypeSubscriptions, false)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "status=500")
}

func TestSyncPolarData_Preconditions(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	_, err := h.svc.SyncPolarData(ctx, "support", SyncTypeAll, false)
	require.ErrorIs(t, err, permission.ErrAccessDenied)
	_, err = h.svc.SyncPolarData(ctx, "root", "orders", false)
	require.ErrorIs(t, err, ErrInvalidSyncType)
	require.Empty(t, h.store.AuditTrail())
	require.Empty(t, h.fake.requests)
}

func TestSyncPolarData_ResolvesOwnersAndLinksCustomers(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.store.PutUser(&models.User{ID: "u_1", Email: "ada@example.com"})

	orphan := remoteSub("sub_1", 1000)
	orphan["customer_id"] = "cus_ada"
	owned := remoteSub("sub_2", 1000)
	owned["metadata"] = map[string]any{"userId": "u_9"}
	h.fake.subs = []map[string]any{orphan, owned}
	h.fake.customers = []map[string]any{
		{"id": "cus_ada", "email": "ada@example.com"},
		{"id": "cus_ghost", "email": "ghost@example.com"},
	}

	res, err := h.svc.SyncPolarData(ctx, "root", SyncTypeAll, false)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, Counts{Created: 2}, *res.Subscriptions)
	require.Equal(t, Counts{Updated: 1, Skipped: 1}, *res.Customers)

	subs := h.store.AllSubscriptions()
	require.Equal(t, "u_1", *subs[0].UserID, "orphan assigned after customer link")
	require.Equal(t, "u_9", *subs[1].UserID)

	u, ok := h.store.User("u_1")
	require.True(t, ok)
	require.Equal(t, "cus_ada", *u.PolarCustomerID)

	res, err = h.svc.SyncPolarData(ctx, "root", SyncTypeCustomers, false)
	require.NoError(t, err)
	require.Equal(t, Counts{Skipped: 2}, *res.Customers)
}

func TestSyncWithPolar(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	local := &models.Product{Name: "Starter", IsActive: false}
	require.NoError(t, h.store.Products().Create(ctx, local))
	require.NoError(t, h.store.Products().Create(ctx, &models.Product{Name: "Taken", PolarProductID: "prod_other", IsActive: true}))

	h.fake.products = []map[string]any{
		{"id": "prod_1", "name": "Starter", "is_archived": false,
			"benefits": []map[string]any{{"id": "b1", "description": "API access"}},
			"prices":   []map[string]any{{"id": "price_1", "price_amount": 900, "price_currency": "usd"}}},
		{"id": "prod_2", "name": "Team", "is_archived": false},
		{"id": "prod_3", "name": "Taken", "is_archived": false},
	}

	_, err := h.svc.SyncWithPolar(ctx, "support")
	require.ErrorIs(t, err, permission.ErrAccessDenied)

	res, err := h.svc.SyncWithPolar(ctx, "root")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 1, res.Created)
	require.Equal(t, 1, res.Updated)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "prod_3")
	// prod_other is linked locally but not offered upstream.
	require.Equal(t, 1, res.Deactivated)
	taken, err := h.store.Products().GetByName(ctx, "Taken")
	require.NoError(t, err)
	require.False(t, taken.IsActive)

	linked, err := h.store.Products().Get(ctx, local.ID)
	require.NoError(t, err)
	require.Equal(t, "prod_1", linked.PolarProductID)
	require.True(t, linked.IsActive)
	require.Equal(t, []string{"API access"}, []string(linked.Features))
	require.Contains(t, linked.Metadata, "lastSync")

	h.fake.products = h.fake.products[:2]
	res, err = h.svc.SyncWithPolar(ctx, "root")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 2, res.Updated)
	require.Zero(t, res.Deactivated)

	// Archived upstream: the provider stops listing Team.
	h.fake.products = h.fake.products[:1]
	res, err = h.svc.SyncWithPolar(ctx, "root")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Deactivated)
	team, err := h.store.Products().GetByName(ctx, "Team")
	require.NoError(t, err)
	require.False(t, team.IsActive)
	starter, err := h.store.Products().Get(ctx, local.ID)
	require.NoError(t, err)
	require.True(t, starter.IsActive)
}

func TestGetSyncStatusAndConnection(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.fake.subs = []map[string]any{remoteSub("sub_1", 1000), remoteSub("sub_2", 1000)}
	h.fake.subs[1]["status"] = "canceled"

	status, err := h.svc.GetSyncStatus(ctx, "root")
	require.NoError(t, err)
	require.Nil(t, status.LastSyncTime)

	_, err = h.svc.SyncPolarData(ctx, "root", SyncTypeSubscriptions, false)
	require.NoError(t, err)

	status, err = h.svc.GetSyncStatus(ctx, "root")
	require.NoError(t, err)
	require.EqualValues(t, 2, status.TotalSubscriptions)
	require.EqualValues(t, 1, status.ActiveSubscriptions)
	require.Len(t, status.RecentSyncs, 1)
	require.NotNil(t, status.LastSyncTime)

	conn, err := h.svc.CheckPolarConnection(ctx, "root")
	require.NoError(t, err)
	require.True(t, conn.HasCredentials)
	require.True(t, conn.Connected)
	require.Equal(t, "org_1234...", conn.OrganizationID)
	require.Equal(t, "Acme", conn.OrganizationName)

	calls := len(h.fake.requests)
	conn, err = h.svc.CheckPolarConnection(ctx, "root")
	require.NoError(t, err)
	require.True(t, conn.Connected)
	require.Len(t, h.fake.requests, calls, "organization lookup is cached")

	bare := newHarness(t, false)
	conn, err = bare.svc.CheckPolarConnection(ctx, "root")
	require.NoError(t, err)
	require.False(t, conn.HasCredentials)
	require.False(t, conn.Connected)
	require.Empty(t, bare.fake.requests)
}
