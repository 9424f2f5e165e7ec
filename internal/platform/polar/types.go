package polar

import (
	"encoding/json"
	"time"

	"github.com/fatflowers/polaradmin/pkg/tool"
)

type Pagination struct {
	TotalCount int `json:"total_count"`
	MaxPage    int `json:"max_page"`
}

type listResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Page is one page of a list endpoint. HasMore is derived from
// total_count > page*limit, so callers must request pages 1, 2, 3...
type Page[T any] struct {
	Items   []T
	HasMore bool
}

func newPage[T any](resp listResponse[T], page, limit int) *Page[T] {
	return &Page[T]{Items: resp.Items, HasMore: resp.Pagination.TotalCount > page*limit}
}

type Customer struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	ExternalID *string        `json:"external_id"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

type Price struct {
	ID                string `json:"id"`
	AmountType        string `json:"amount_type"`
	PriceAmount       int64  `json:"price_amount"`
	PriceCurrency     string `json:"price_currency"`
	RecurringInterval string `json:"recurring_interval"`
	IsArchived        bool   `json:"is_archived"`
}

type Benefit struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type Product struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       *string        `json:"description"`
	IsArchived        bool           `json:"is_archived"`
	IsRecurring       bool           `json:"is_recurring"`
	RecurringInterval *string        `json:"recurring_interval"`
	Prices            []Price        `json:"prices"`
	Benefits          []Benefit      `json:"benefits"`
	Metadata          map[string]any `json:"metadata"`
	ModifiedAt        *time.Time     `json:"modified_at"`
}

type Subscription struct {
	ID                          string         `json:"id"`
	CreatedAt                   time.Time      `json:"created_at"`
	ModifiedAt                  *time.Time     `json:"modified_at"`
	Amount                      int64          `json:"amount"`
	Currency                    string         `json:"currency"`
	RecurringInterval           string         `json:"recurring_interval"`
	Status                      string         `json:"status"`
	CurrentPeriodStart          *time.Time     `json:"current_period_start"`
	CurrentPeriodEnd            *time.Time     `json:"current_period_end"`
	CancelAtPeriodEnd           bool           `json:"cancel_at_period_end"`
	CanceledAt                  *time.Time     `json:"canceled_at"`
	StartedAt                   *time.Time     `json:"started_at"`
	EndedAt                     *time.Time     `json:"ended_at"`
	CustomerID                  string         `json:"customer_id"`
	ProductID                   string         `json:"product_id"`
	PriceID                     string         `json:"price_id"`
	Prices                      []Price        `json:"prices"`
	CustomerCancellationReason  *string        `json:"customer_cancellation_reason"`
	CustomerCancellationComment *string        `json:"customer_cancellation_comment"`
	Metadata                    map[string]any `json:"metadata"`
	CustomFieldData             map[string]any `json:"custom_field_data"`
	Customer                    *Customer      `json:"customer"`
	CustomerEmail               string         `json:"customer_email"`
	Email                       string         `json:"email"`
}

// ResolvedEmail picks customer.email, then customer_email, then email.
func (s *Subscription) ResolvedEmail() string {
	var nested string
	if s.Customer != nil {
		nested = s.Customer.Email
	}
	return tool.FirstNonEmpty(nested, s.CustomerEmail, s.Email)
}

// ResolvedPriceID prefers price_id and falls back to the first listed price.
func (s *Subscription) ResolvedPriceID() string {
	if s.PriceID != "" {
		return s.PriceID
	}
	if len(s.Prices) > 0 {
		return s.Prices[0].ID
	}
	return ""
}

// ResolvedCustomerID prefers customer_id and falls back to the nested customer.
func (s *Subscription) ResolvedCustomerID() string {
	if s.CustomerID != "" {
		return s.CustomerID
	}
	if s.Customer != nil {
		return s.Customer.ID
	}
	return ""
}

// MetadataUserID returns metadata.userId when it is a non-empty string.
func (s *Subscription) MetadataUserID() string {
	if s.Metadata == nil {
		return ""
	}
	v, _ := s.Metadata["userId"].(string)
	return v
}

type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CheckoutRequest struct {
	Products      []string       `json:"products"`
	SuccessURL    string         `json:"success_url,omitempty"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type Checkout struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Event is a verified webhook delivery. ID and Timestamp come from headers.
type Event struct {
	ID        string          `json:"-"`
	Timestamp time.Time       `json:"-"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
}

const (
	EventSubscriptionCreated    = "subscription.created"
	EventSubscriptionUpdated    = "subscription.updated"
	EventSubscriptionActive     = "subscription.active"
	EventSubscriptionCanceled   = "subscription.canceled"
	EventSubscriptionUncanceled = "subscription.uncanceled"
	EventSubscriptionRevoked    = "subscription.revoked"
	EventOrderCreated           = "order.created"
)
