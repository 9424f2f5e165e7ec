package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/logctx"
)

var (
	ErrNameTaken    = errors.New("product name already in use")
	ErrProductInUse = errors.New("product has active subscriptions")
	ErrInvalid      = errors.New("invalid product")
)

type UpsertRequest struct {
	Name        string         `json:"name" validate:"required,max=255"`
	Description string         `json:"description" validate:"max=5000"`
	Category    string         `json:"category" validate:"max=64"`
	Features    []string       `json:"features" validate:"max=50,dive,required,max=200"`
	IsActive    *bool          `json:"is_active"`
	Metadata    map[string]any `json:"metadata"`
}

type Service struct {
	products repository.ProductStore
	subs     repository.SubscriptionStore
	gate     permission.Gate
	audit    *audit.Service
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewService(products repository.ProductStore, subs repository.SubscriptionStore, gate permission.Gate, auditSvc *audit.Service, log *zap.SugaredLogger) *Service {
	return &Service{
		products: products,
		subs:     subs,
		gate:     gate,
		audit:    auditSvc,
		validate: validator.New(),
		log:      log,
	}
}

func (s *Service) List(ctx context.Context, actorID string, includeInactive bool) ([]*models.Product, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ViewProducts); err != nil {
		return nil, err
	}
	return s.products.List(ctx, includeInactive)
}

func (s *Service) check(req *UpsertRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// nameFree reports ErrNameTaken when another product already uses name.
func (s *Service) nameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.products.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actorID string, req UpsertRequest) (*models.Product, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ManageProducts); err != nil {
		return nil, err
	}
	if err := s.check(&req); err != nil {
		return nil, err
	}
	if err := s.nameFree(ctx, req.Name, ""); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Features:    features(req.Features),
		IsActive:    req.IsActive == nil || *req.IsActive,
		Metadata:    datatypes.JSONMap(req.Metadata),
	}
	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %q", ErrNameTaken, req.Name)
		}
		return nil, err
	}
	s.record(ctx, models.AuditActionProductCreated, actorID, p)
	return p, nil
}

func (s *Service) Update(ctx context.Context, actorID, id string, req UpsertRequest) (*models.Product, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ManageProducts); err != nil {
		return nil, err
	}
	if err := s.check(&req); err != nil {
		return nil, err
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.nameFree(ctx, req.Name, p.ID); err != nil {
		return nil, err
	}
	p.Name = req.Name
	p.Description = req.Description
	p.Category = req.Category
	p.Features = features(req.Features)
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.Metadata != nil {
		p.Metadata = mergeMetadata(p.Metadata, req.Metadata)
	}
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %q", ErrNameTaken, req.Name)
		}
		return nil, err
	}
	s.record(ctx, models.AuditActionProductUpdated, actorID, p)
	return p, nil
}

func features(in []string) datatypes.JSONSlice[string] {
	if in == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](in)
}

// mergeMetadata keeps the provider snapshot under "lastSync" out of admin edits.
func mergeMetadata(cur datatypes.JSONMap, edit map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range edit {
		out[k] = v
	}
	if snap, ok := cur[MetadataLastSync]; ok {
		out[MetadataLastSync] = snap
	}
	return out
}

// Deactivate is the soft delete.
func (s *Service) Deactivate(ctx context.Context, actorID, id string) (*models.Product, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ManageProducts); err != nil {
		return nil, err
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return p, nil
	}
	p.IsActive = false
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.record(ctx, models.AuditActionProductDeactivated, actorID, p)
	return p, nil
}

// Delete removes a product only when no active subscription references it.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ManageProducts); err != nil {
		return err
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Linked() {
		n, err := s.subs.CountActiveByProduct(ctx, p.PolarProductID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d active", ErrProductInUse, n)
		}
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, models.AuditActionProductDeleted, actorID, p)
	return nil
}

func (s *Service) record(ctx context.Context, action models.AuditAction, actorID string, p *models.Product) {
	details := map[string]any{"name": p.Name, "polarProductId": p.PolarProductID}
	if err := s.audit.Record(ctx, audit.Entry{
		Action:     action,
		ActorID:    actorID,
		TargetType: "product",
		TargetID:   p.ID,
		Details:    details,
	}); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("product_audit_failed", "action", action, "product_id", p.ID)
	}
}

// MetadataLastSync is the metadata key holding the latest provider snapshot.
const MetadataLastSync = "lastSync"

var Module = fx.Options(
	fx.Provide(NewService),
)
