// Package repository declares the storage contracts used by the services.
// Implementations live in gormrepo (postgres) and memrepo (in-memory).
package repository

import (
	"context"
	"errors"

	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/types"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ListQuery is the admin listing shape shared by the listing endpoints.
type ListQuery struct {
	Filters   types.FiltersAnd
	From      int
	Size      int
	SortBy    string
	SortOrder string
}

// Normalize applies the default page size and clamps negative offsets.
func (q *ListQuery) Normalize() {
	if q.Size <= 0 {
		q.Size = 10
	}
	if q.Size > 200 {
		q.Size = 200
	}
	if q.From < 0 {
		q.From = 0
	}
}

type SubscriptionStore interface {
	// GetByPolarID returns ErrNotFound when no record carries polarID.
	GetByPolarID(ctx context.Context, polarID string) (*models.Subscription, error)
	// Create inserts s; it returns ErrDuplicate when s.PolarID already exists.
	Create(ctx context.Context, s *models.Subscription) error
	// Update writes every column of an existing record.
	Update(ctx context.Context, s *models.Subscription) error
	List(ctx context.Context, q ListQuery) ([]*models.Subscription, int64, error)
	// AssignOrphans sets userID on subscriptions of customerID that have no owner.
	AssignOrphans(ctx context.Context, customerID, userID string) (int64, error)
	CountByStatus(ctx context.Context) (map[types.SubscriptionStatus]int64, error)
	CountOrphaned(ctx context.Context) (int64, error)
	ListByStatus(ctx context.Context, statuses ...types.SubscriptionStatus) ([]*models.Subscription, error)
	CountActiveByProduct(ctx context.Context, polarProductID string) (int64, error)
}

type ProductStore interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	GetByPolarProductID(ctx context.Context, polarProductID string) (*models.Product, error)
	GetByName(ctx context.Context, name string) (*models.Product, error)
	// Create returns ErrDuplicate on a name or provider id clash.
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, includeInactive bool) ([]*models.Product, error)
}

type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	// FindByEmail returns users with exactly this email, oldest first.
	FindByEmail(ctx context.Context, email string) ([]*models.User, error)
	SetPolarCustomerID(ctx context.Context, userID, customerID string) error
}

type AdminStore interface {
	GetAdmin(ctx context.Context, id string) (*models.AdminUser, error)
}

type WebhookEventStore interface {
	Append(ctx context.Context, e *models.WebhookEvent) error
}

// AuditQuery narrows audit log reads; zero values mean no constraint.
type AuditQuery struct {
	Actions []models.AuditAction
	ActorID string
	From    int
	Size    int
}

type AuditStore interface {
	Append(ctx context.Context, e *models.AuditLog) error
	// List returns entries newest first with the total matching count.
	List(ctx context.Context, q AuditQuery) ([]*models.AuditLog, int64, error)
}

// SubscriptionColumns are the columns admin listings may filter and sort on.
var SubscriptionColumns = map[string]bool{
	"polar_id":             true,
	"polar_product_id":     true,
	"polar_price_id":       true,
	"status":               true,
	"currency":             true,
	"interval":             true,
	"amount":               true,
	"user_id":              true,
	"customer_id":          true,
	"customer_email":       true,
	"cancel_at_period_end": true,
	"current_period_end":   true,
	"started_at":           true,
	"created_at":           true,
	"updated_at":           true,
}
