package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/models"
)

type userRepo struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) repository.UserStore {
	return &userRepo{db: db}
}

func (r *userRepo) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) ([]*models.User, error) {
	var rows []*models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find users by email: %w", err)
	}
	return rows, nil
}

func (r *userRepo) SetPolarCustomerID(ctx context.Context, userID, customerID string) error {
	tx := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("polar_customer_id", customerID)
	if tx.Error != nil {
		return fmt.Errorf("link user %s to customer %s: %w", userID, customerID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type adminRepo struct {
	db *gorm.DB
}

func NewAdminStore(db *gorm.DB) repository.AdminStore {
	return &adminRepo{db: db}
}

func (r *adminRepo) GetAdmin(ctx context.Context, id string) (*models.AdminUser, error) {
	var a models.AdminUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}
