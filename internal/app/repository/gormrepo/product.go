package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/models"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) repository.ProductStore {
	return &productRepo{db: db}
}

func (r *productRepo) first(ctx context.Context, query string, arg any) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Where(query, arg).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *productRepo) Get(ctx context.Context, id string) (*models.Product, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *productRepo) GetByPolarProductID(ctx context.Context, polarProductID string) (*models.Product, error) {
	if polarProductID == "" {
		return nil, repository.ErrNotFound
	}
	return r.first(ctx, "polar_product_id = ?", polarProductID)
}

func (r *productRepo) GetByName(ctx context.Context, name string) (*models.Product, error) {
	return r.first(ctx, "name = ?", name)
}

// Create maps unique violations to ErrDuplicate; the connection is opened
// with TranslateError so the driver error arrives as gorm.ErrDuplicatedKey.
func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	ensureID(&p.ID)
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create product %q: %w", p.Name, translate(err))
	}
	return nil
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, translate(err))
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if tx.Error != nil {
		return fmt.Errorf("delete product %s: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepo) List(ctx context.Context, includeInactive bool) ([]*models.Product, error) {
	tx := r.db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		tx = tx.Where("is_active = ?", true)
	}
	var rows []*models.Product
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return rows, nil
}
