package polar_sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/app/service/product"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/logctx"
)

type ProductSyncResult struct {
	Success bool `json:"success"`
	Created int  `json:"created"`
	Updated int  `json:"updated"`
	Skipped int  `json:"skipped"`
	// Deactivated counts linked products no longer offered upstream.
	Deactivated int      `json:"deactivated"`
	Errors      []string `json:"errors"`
	DurationMs  int64    `json:"durationMs"`
	Error       string   `json:"error,omitempty"`
}

// SyncWithPolar mirrors provider products locally. Existing products matched
// by provider id are always patched.
func (s *Service) SyncWithPolar(ctx context.Context, adminID string) (*ProductSyncResult, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, adminID, permission.ManageProducts); err != nil {
		return nil, err
	}
	lg := logctx.FromCtx(ctx, s.log).With("sync_type", SyncTypeProducts)
	start := s.now()
	defer s.metrics.ObserveProcess("polar_sync", string(SyncTypeProducts), start)

	s.recordAudit(ctx, lg, models.AuditActionPolarSyncStart, adminID, SyncTypeProducts, map[string]any{})

	res := &SyncResult{SyncType: SyncTypeProducts, Errors: []string{}}
	counts := Counts{}
	res.Products = &counts
	deactivated := 0
	remote, err := s.client.FetchProducts(ctx)
	if err == nil {
		lg.Debugw("polar_sync_page_fetched", "entity", "products", "items", len(remote))
		for i := range remote {
			outcome, err := s.syncProduct(ctx, &remote[i])
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("product %s (%s): %v", remote[i].ID, remote[i].Name, err))
				s.metrics.SyncRecord("product", "error")
				continue
			}
			tally(&counts, outcome)
			s.metrics.SyncRecord("product", outcome)
		}
		deactivated, err = s.deactivateMissing(ctx, lg, remote, &res.Errors)
	} else {
		err = fmt.Errorf("fetch products: %w", err)
	}
	s.finish(ctx, lg, adminID, res, start, err)

	return &ProductSyncResult{
		Success:     res.Success,
		Created:     res.Created,
		Updated:     res.Updated,
		Skipped:     res.Skipped,
		Deactivated: deactivated,
		Errors:      res.Errors,
		DurationMs:  res.DurationMs,
		Error:       res.Error,
	}, nil
}

// deactivateMissing turns off active linked products that the provider no
// longer lists. FetchProducts only returns non-archived products, so absence
// is how an upstream archive shows up.
func (s *Service) deactivateMissing(ctx context.Context, lg *zap.SugaredLogger, remote []polar.Product, errs *[]string) (int, error) {
	offered := lo.KeyBy(remote, func(p polar.Product) string { return p.ID })
	active, err := s.products.List(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("list local products: %w", err)
	}
	n := 0
	for _, p := range active {
		if !p.Linked() {
			continue
		}
		if _, ok := offered[p.PolarProductID]; ok {
			continue
		}
		p.IsActive = false
		if err := s.products.Update(ctx, p); err != nil {
			*errs = append(*errs, fmt.Sprintf("product %s (%s): deactivate: %v", p.PolarProductID, p.Name, err))
			s.metrics.SyncRecord("product", "error")
			continue
		}
		lg.Infow("polar_sync_product_deactivated", "product_id", p.ID, "polar_product_id", p.PolarProductID)
		s.metrics.SyncRecord("product", "deactivated")
		n++
	}
	return n, nil
}

func (s *Service) syncProduct(ctx context.Context, p *polar.Product) (string, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return "", errors.New("provider product has no name")
	}

	local, err := s.products.GetByPolarProductID(ctx, p.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if local == nil {
		byName, err := s.products.GetByName(ctx, name)
		switch {
		case err == nil && byName.Linked():
			return "", fmt.Errorf("name %q already used by provider product %s", name, byName.PolarProductID)
		case err == nil:
			local = byName
		case !errors.Is(err, repository.ErrNotFound):
			return "", err
		}
	} else if local.Name != name {
		other, err := s.products.GetByName(ctx, name)
		if err == nil && other.ID != local.ID {
			return "", fmt.Errorf("name %q already used by product %s", name, other.ID)
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
	}

	if local == nil {
		np := &models.Product{}
		applyProduct(np, p, s.now())
		if err := s.products.Create(ctx, np); err != nil {
			return "", err
		}
		return outcomeCreated, nil
	}
	applyProduct(local, p, s.now())
	if err := s.products.Update(ctx, local); err != nil {
		return "", err
	}
	return outcomeUpdated, nil
}

// applyProduct copies provider-owned fields onto the local product and
// refreshes the sync snapshot. Admin metadata keys are preserved.
func applyProduct(dst *models.Product, p *polar.Product, now time.Time) {
	dst.PolarProductID = p.ID
	dst.Name = strings.TrimSpace(p.Name)
	if p.Description != nil {
		dst.Description = *p.Description
	}
	features := make([]string, 0, len(p.Benefits))
	for _, b := range p.Benefits {
		if d := strings.TrimSpace(b.Description); d != "" {
			features = append(features, d)
		}
	}
	dst.Features = datatypes.JSONSlice[string](features)
	dst.IsActive = !p.IsArchived

	prices := make([]map[string]any, 0, len(p.Prices))
	for _, pr := range p.Prices {
		prices = append(prices, map[string]any{
			"id":                pr.ID,
			"amountType":        pr.AmountType,
			"priceAmount":       pr.PriceAmount,
			"priceCurrency":     pr.PriceCurrency,
			"recurringInterval": pr.RecurringInterval,
		})
	}
	snapshot := map[string]any{
		"syncedAt":    now.UTC().Format(time.RFC3339),
		"isRecurring": p.IsRecurring,
		"prices":      prices,
	}
	if p.RecurringInterval != nil {
		snapshot["recurringInterval"] = *p.RecurringInterval
	}
	if dst.Metadata == nil {
		dst.Metadata = datatypes.JSONMap{}
	}
	dst.Metadata[product.MetadataLastSync] = snapshot
}
