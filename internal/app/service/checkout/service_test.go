package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/repository/memrepo"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/config"
)

func TestCreateCheckout(t *testing.T) {
	var got polar.CheckoutRequest
	checkouts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/products/prod_1":
			_, _ = w.Write([]byte(`{"id":"prod_1","name":"Pro","is_archived":false}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/products/prod_old":
			_, _ = w.Write([]byte(`{"id":"prod_old","name":"Legacy","is_archived":true}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkouts":
			checkouts++
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"id":"co_1","url":"https://buy.polar.sh/co_1","status":"open"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := memrepo.New()
	ctx := context.Background()
	live := &models.Product{Name: "Pro", PolarProductID: "prod_1", IsActive: true}
	localOnly := &models.Product{Name: "Draft", IsActive: true}
	archived := &models.Product{Name: "Legacy", PolarProductID: "prod_old", IsActive: true}
	require.NoError(t, store.Products().Create(ctx, live))
	require.NoError(t, store.Products().Create(ctx, localOnly))
	require.NoError(t, store.Products().Create(ctx, archived))

	client := polar.New(config.BillingProviderConfig{
		BaseURL: srv.URL, AccessToken: "t", OrganizationID: "org", FrontendURL: "https://app.example.com",
	})
	svc := NewService(client, store.Products(), zap.NewNop().Sugar())

	resp, err := svc.CreateCheckout(ctx, CreateCheckoutRequest{UserID: "u_1", ProductID: live.ID, Email: "ada@example.com"})
	require.NoError(t, err)
	require.Equal(t, "co_1", resp.CheckoutID)
	require.Equal(t, "https://buy.polar.sh/co_1", resp.URL)
	require.Equal(t, []string{"prod_1"}, got.Products)
	require.Equal(t, "https://app.example.com/success?checkout_id={CHECKOUT_ID}", got.SuccessURL)
	require.Equal(t, "ada@example.com", got.CustomerEmail)
	require.Equal(t, "u_1", got.Metadata["userId"])

	_, err = svc.CreateCheckout(ctx, CreateCheckoutRequest{UserID: "u_1", ProductID: localOnly.ID})
	require.ErrorIs(t, err, ErrProductUnavailable)

	_, err = svc.CreateCheckout(ctx, CreateCheckoutRequest{UserID: "u_1", ProductID: archived.ID})
	require.ErrorIs(t, err, ErrProductUnavailable)
	require.Equal(t, 1, checkouts)

	_, err = svc.CreateCheckout(ctx, CreateCheckoutRequest{UserID: "u_1", ProductID: "missing"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.CreateCheckout(ctx, CreateCheckoutRequest{ProductID: live.ID})
	require.ErrorIs(t, err, ErrInvalidRequest)
}
