package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/pkg/types"
)

// Subscription mirrors one provider subscription. PolarID is the
// reconciliation key and never changes after insert. A nil UserID marks the
// record as orphaned until it is linked by email or by an admin.
type Subscription struct {
	ID             string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	PolarID        string                `gorm:"column:polar_id;type:varchar(64);not null;uniqueIndex" json:"polar_id"`
	PolarPriceID   string                `gorm:"column:polar_price_id;type:varchar(64)" json:"polar_price_id"`
	PolarProductID string                `gorm:"column:polar_product_id;type:varchar(64);index" json:"polar_product_id"`
	Currency       string                `gorm:"column:currency;type:varchar(8)" json:"currency"`
	Interval       types.BillingInterval `gorm:"column:interval;type:varchar(16)" json:"interval"`
	// Amount is in minor currency units.
	Amount int64                    `gorm:"column:amount;not null;default:0" json:"amount"`
	Status types.SubscriptionStatus `gorm:"column:status;type:varchar(64);not null;index" json:"status"`

	CurrentPeriodStart *time.Time `gorm:"column:current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `gorm:"column:current_period_end" json:"current_period_end"`
	CancelAtPeriodEnd  bool       `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`
	StartedAt          *time.Time `gorm:"column:started_at" json:"started_at"`
	EndedAt            *time.Time `gorm:"column:ended_at" json:"ended_at"`
	CanceledAt         *time.Time `gorm:"column:canceled_at" json:"canceled_at"`

	CustomerCancellationReason  *string `gorm:"column:customer_cancellation_reason;type:varchar(128)" json:"customer_cancellation_reason"`
	CustomerCancellationComment *string `gorm:"column:customer_cancellation_comment;type:text" json:"customer_cancellation_comment"`

	UserID        *string `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	CustomerID    string  `gorm:"column:customer_id;type:varchar(64);index" json:"customer_id"`
	CustomerEmail *string `gorm:"column:customer_email;type:varchar(320)" json:"customer_email"`

	Metadata        datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CustomFieldData datatypes.JSONMap `gorm:"column:custom_field_data;type:jsonb" json:"custom_field_data"`

	// ProviderModifiedAt is the provider's modified_at of the last applied write.
	ProviderModifiedAt *time.Time `gorm:"column:provider_modified_at" json:"provider_modified_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Orphaned reports whether no local user owns the subscription.
func (s *Subscription) Orphaned() bool {
	return s != nil && (s.UserID == nil || *s.UserID == "")
}

// Active reports whether the subscription currently counts as paying.
func (s *Subscription) Active() bool {
	return s != nil && s.Status.Active()
}
