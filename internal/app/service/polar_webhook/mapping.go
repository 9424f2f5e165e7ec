package polar_webhook

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/types"
)

// NewSubscription builds the local record for a provider subscription seen
// for the first time. An empty userID leaves the record orphaned.
func NewSubscription(p *polar.Subscription, userID string) *models.Subscription {
	s := &models.Subscription{PolarID: p.ID}
	ApplyAll(s, p)
	if userID != "" {
		s.UserID = &userID
	}
	return s
}

// ApplyAll overwrites every provider-owned attribute of s with p. Ownership
// (UserID) is left untouched. Used by forced bulk sync.
func ApplyAll(s *models.Subscription, p *polar.Subscription) {
	s.PolarPriceID = p.ResolvedPriceID()
	s.PolarProductID = p.ProductID
	s.Currency = p.Currency
	s.Interval = types.BillingInterval(p.RecurringInterval)
	s.Amount = p.Amount
	s.Status = types.SubscriptionStatus(p.Status)
	s.CurrentPeriodStart = p.CurrentPeriodStart
	s.CurrentPeriodEnd = p.CurrentPeriodEnd
	s.CancelAtPeriodEnd = p.CancelAtPeriodEnd
	s.StartedAt = p.StartedAt
	s.EndedAt = p.EndedAt
	s.CanceledAt = p.CanceledAt
	s.CustomerCancellationReason = p.CustomerCancellationReason
	s.CustomerCancellationComment = p.CustomerCancellationComment
	s.CustomerID = p.ResolvedCustomerID()
	if email := p.ResolvedEmail(); email != "" {
		s.CustomerEmail = &email
	}
	s.Metadata = jsonMap(p.Metadata)
	s.CustomFieldData = jsonMap(p.CustomFieldData)
	stampModified(s, p)
}

// applyUpdate patches the attributes a subscription.updated event carries.
func applyUpdate(s *models.Subscription, p *polar.Subscription) {
	s.Amount = p.Amount
	s.Status = types.SubscriptionStatus(p.Status)
	s.CurrentPeriodStart = p.CurrentPeriodStart
	s.CurrentPeriodEnd = p.CurrentPeriodEnd
	s.CancelAtPeriodEnd = p.CancelAtPeriodEnd
	s.Metadata = jsonMap(p.Metadata)
	s.CustomFieldData = jsonMap(p.CustomFieldData)
	stampModified(s, p)
}

func applyActive(s *models.Subscription, p *polar.Subscription) {
	s.Status = types.SubscriptionStatus(p.Status)
	s.StartedAt = p.StartedAt
	stampModified(s, p)
}

func applyCanceled(s *models.Subscription, p *polar.Subscription) {
	s.Status = types.SubscriptionStatus(p.Status)
	s.CanceledAt = p.CanceledAt
	s.CustomerCancellationReason = p.CustomerCancellationReason
	s.CustomerCancellationComment = p.CustomerCancellationComment
	stampModified(s, p)
}

func applyUncanceled(s *models.Subscription, p *polar.Subscription) {
	s.Status = types.SubscriptionStatus(p.Status)
	s.CancelAtPeriodEnd = false
	s.CanceledAt = nil
	s.CustomerCancellationReason = nil
	s.CustomerCancellationComment = nil
	stampModified(s, p)
}

func applyRevoked(s *models.Subscription, p *polar.Subscription, now time.Time) {
	s.Status = types.SubscriptionStatusRevoked
	ended := now
	if p.EndedAt != nil {
		ended = *p.EndedAt
	}
	s.EndedAt = &ended
	stampModified(s, p)
}

// IsStale reports whether p is older than the write already applied to s.
// Records or payloads without a provider timestamp are never stale.
func IsStale(s *models.Subscription, p *polar.Subscription) bool {
	if s.ProviderModifiedAt == nil {
		return false
	}
	incoming := providerStamp(p)
	return incoming != nil && incoming.Before(*s.ProviderModifiedAt)
}

// providerStamp is modified_at, or created_at for never-modified subscriptions.
func providerStamp(p *polar.Subscription) *time.Time {
	if p.ModifiedAt != nil {
		return p.ModifiedAt
	}
	if !p.CreatedAt.IsZero() {
		t := p.CreatedAt
		return &t
	}
	return nil
}

func stampModified(s *models.Subscription, p *polar.Subscription) {
	if t := providerStamp(p); t != nil {
		s.ProviderModifiedAt = t
	}
}

func jsonMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	return datatypes.JSONMap(m)
}
