package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/types"
)

type subscriptionRepo struct {
	db *gorm.DB
}

// NewSubscriptionStore creates a subscription store backed by GORM.
func NewSubscriptionStore(db *gorm.DB) repository.SubscriptionStore {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) GetByPolarID(ctx context.Context, polarID string) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.WithContext(ctx).Where("polar_id = ?", polarID).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Create relies on the unique polar_id index: a concurrent insert of the same
// provider id affects no rows and is reported as ErrDuplicate.
func (r *subscriptionRepo) Create(ctx context.Context, s *models.Subscription) error {
	ensureID(&s.ID)
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "polar_id"}},
		DoNothing: true,
	}).Create(s)
	if tx.Error != nil {
		return fmt.Errorf("create subscription %s: %w", s.PolarID, translate(tx.Error))
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("create subscription %s: %w", s.PolarID, repository.ErrDuplicate)
	}
	return nil
}

func (r *subscriptionRepo) Update(ctx context.Context, s *models.Subscription) error {
	if s.ID == "" {
		return fmt.Errorf("update subscription %s: %w", s.PolarID, repository.ErrNotFound)
	}
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("update subscription %s: %w", s.PolarID, translate(err))
	}
	return nil
}

func (r *subscriptionRepo) List(ctx context.Context, q repository.ListQuery) ([]*models.Subscription, int64, error) {
	q.Normalize()
	tx := r.db.WithContext(ctx).Model(&models.Subscription{})
	if len(q.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{q.Filters}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	query := tx.Limit(q.Size)
	if q.From > 0 {
		query = query.Offset(q.From)
	}
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	query = query.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: q.SortOrder != "asc"}}})

	var rows []*models.Subscription
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return rows, total, nil
}

func (r *subscriptionRepo) AssignOrphans(ctx context.Context, customerID, userID string) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("customer_id = ? AND (user_id IS NULL OR user_id = '')", customerID).
		Update("user_id", userID)
	if tx.Error != nil {
		return 0, fmt.Errorf("assign orphans of customer %s: %w", customerID, tx.Error)
	}
	return tx.RowsAffected, nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context) (map[types.SubscriptionStatus]int64, error) {
	var rows []struct {
		Status types.SubscriptionStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count subscriptions by status: %w", err)
	}
	out := make(map[types.SubscriptionStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *subscriptionRepo) CountOrphaned(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id IS NULL OR user_id = ''").
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count orphaned subscriptions: %w", err)
	}
	return n, nil
}

func (r *subscriptionRepo) ListByStatus(ctx context.Context, statuses ...types.SubscriptionStatus) ([]*models.Subscription, error) {
	var rows []*models.Subscription
	if err := r.db.WithContext(ctx).Where("status IN ?", statuses).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list subscriptions by status: %w", err)
	}
	return rows, nil
}

func (r *subscriptionRepo) CountActiveByProduct(ctx context.Context, polarProductID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("polar_product_id = ? AND status IN ?", polarProductID, activeStatuses).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count active subscriptions of %s: %w", polarProductID, err)
	}
	return n, nil
}

var activeStatuses = []types.SubscriptionStatus{types.SubscriptionStatusActive, types.SubscriptionStatusTrialing}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	}
	return err
}
