package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/logctx"
)

var (
	ErrInvalidRequest     = errors.New("invalid checkout request")
	ErrProductUnavailable = errors.New("product is not available for checkout")
)

type CreateCheckoutRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Email     string `json:"email"`
}

type CreateCheckoutResponse struct {
	CheckoutID string `json:"checkout_id"`
	URL        string `json:"url"`
}

type Service struct {
	client   *polar.Client
	products repository.ProductStore
	log      *zap.SugaredLogger
}

func NewService(client *polar.Client, products repository.ProductStore, log *zap.SugaredLogger) *Service {
	return &Service{client: client, products: products, log: log}
}

// CreateCheckout opens a provider checkout for a local product. The user id
// travels in metadata so the resulting subscription resolves its owner.
func (s *Service) CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*CreateCheckoutResponse, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.UserID == "" || req.ProductID == "" {
		return nil, fmt.Errorf("%w: user_id and product_id are required", ErrInvalidRequest)
	}
	p, err := s.products.Get(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive || !p.Linked() {
		return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, p.ID)
	}
	// The local row may lag behind an archive done on the provider side.
	remote, err := s.client.GetProduct(ctx, p.PolarProductID)
	if err != nil {
		return nil, err
	}
	if remote.IsArchived {
		return nil, fmt.Errorf("%w: %s is archived upstream", ErrProductUnavailable, p.ID)
	}

	out, err := s.client.CreateCheckout(ctx, polar.CheckoutRequest{
		Products:      []string{p.PolarProductID},
		SuccessURL:    s.client.Config().FrontendURL + "/success?checkout_id={CHECKOUT_ID}",
		CustomerEmail: strings.TrimSpace(req.Email),
		Metadata:      map[string]any{"userId": req.UserID},
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("polar_checkout_create_failed", "product_id", p.ID, "user_id", req.UserID, "error", err)
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("polar_checkout_created", "checkout_id", out.ID, "product_id", p.ID, "user_id", req.UserID)
	return &CreateCheckoutResponse{CheckoutID: out.ID, URL: out.URL}, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
