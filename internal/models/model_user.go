package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is an end user of the product, the owner side of a Subscription.
type User struct {
	ID              string    `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Email           string    `gorm:"column:email;type:varchar(320);not null;index" json:"email"`
	Name            string    `gorm:"column:name;type:varchar(255)" json:"name"`
	PolarCustomerID *string   `gorm:"column:polar_customer_id;type:varchar(64);index" json:"polar_customer_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "super_admin"
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSupport    AdminRole = "support"
)

// AdminUser is an operator of the dashboard. Permissions are ignored for super admins.
type AdminUser struct {
	ID          string                      `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Email       string                      `gorm:"column:email;type:varchar(320);not null;uniqueIndex" json:"email"`
	Role        AdminRole                   `gorm:"column:role;type:varchar(32);not null" json:"role"`
	Permissions datatypes.JSONSlice[string] `gorm:"column:permissions;type:jsonb" json:"permissions"`
	IsActive    bool                        `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func (AdminUser) TableName() string { return "admin_users" }
