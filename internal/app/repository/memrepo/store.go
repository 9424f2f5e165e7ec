// Package memrepo is an in-memory implementation of the repository contracts.
// It backs service and handler tests and supports fault injection per
// operation and key.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/tool"
	"github.com/fatflowers/polaradmin/pkg/types"
)

// Fault operations accepted by FailOn.
const (
	OpSubscriptionCreate = "subscriptions.create"
	OpSubscriptionUpdate = "subscriptions.update"
	OpSubscriptionGet    = "subscriptions.get"
	OpProductCreate      = "products.create"
	OpProductUpdate      = "products.update"
	OpUserLink           = "users.link"
	OpWebhookAppend      = "webhook_events.append"
	OpAuditAppend        = "audit_logs.append"
)

type fault struct {
	op  string
	key string
	err error
}

// Store holds every table. The zero value is not usable; call New.
type Store struct {
	mu            sync.Mutex
	subscriptions map[string]*models.Subscription // by polar id
	products      map[string]*models.Product      // by id
	users         map[string]*models.User
	admins        map[string]*models.AdminUser
	webhookEvents []*models.WebhookEvent
	auditLogs     []*models.AuditLog
	faults        []fault
	now           func() time.Time
}

func New() *Store {
	return &Store{
		subscriptions: map[string]*models.Subscription{},
		products:      map[string]*models.Product{},
		users:         map[string]*models.User{},
		admins:        map[string]*models.AdminUser{},
		now:           time.Now,
	}
}

// FailOn makes op return err whenever its key matches. An empty key matches
// every call. Keys are the subscription polar id, product name, user id,
// webhook event type or audit action depending on op.
func (s *Store) FailOn(op, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{op: op, key: key, err: err})
}

func (s *Store) fault(op, key string) error {
	for _, f := range s.faults {
		if f.op == op && (f.key == "" || f.key == key) {
			return f.err
		}
	}
	return nil
}

func (s *Store) Subscriptions() repository.SubscriptionStore { return subscriptionStore{s} }
func (s *Store) Products() repository.ProductStore { return productStore{s} }
func (s *Store) Users() repository.UserStore { return userStore{s} }
func (s *Store) Admins() repository.AdminStore { return adminStore{s} }
func (s *Store) WebhookEvents() repository.WebhookEventStore { return webhookEventStore{s} }
func (s *Store) AuditLogs() repository.AuditStore { return auditStore{s} }

// PutUser seeds a user.
func (s *Store) PutUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	c := *u
	s.users[u.ID] = &c
}

// PutAdmin seeds an admin.
func (s *Store) PutAdmin(a *models.AdminUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	s.admins[a.ID] = &c
}

// AllSubscriptions returns copies of every subscription ordered by polar id.
func (s *Store) AllSubscriptions() []*models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Subscription, 0, len(s.subscriptions))
	for _, v := range s.subscriptions {
		c := *v
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolarID < out[j].PolarID })
	return out
}

// WebhookEventLog returns a copy of the webhook event log in append order.
func (s *Store) WebhookEventLog() []models.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WebhookEvent, 0, len(s.webhookEvents))
	for _, e := range s.webhookEvents {
		out = append(out, *e)
	}
	return out
}

// AuditTrail returns a copy of the audit log in append order.
func (s *Store) AuditTrail() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditLog, 0, len(s.auditLogs))
	for _, e := range s.auditLogs {
		out = append(out, *e)
	}
	return out
}

// User returns a copy of a seeded or updated user.
func (s *Store) User(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

func (s *Store) stamp(id *string, created, updated *time.Time) {
	now := s.now()
	if *id == "" {
		*id = tool.GenerateUUIDV7()
	}
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

type subscriptionStore struct{ s *Store }

func (r subscriptionStore) GetByPolarID(_ context.Context, polarID string) (*models.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpSubscriptionGet, polarID); err != nil {
		return nil, err
	}
	v, ok := r.s.subscriptions[polarID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (r subscriptionStore) Create(_ context.Context, sub *models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpSubscriptionCreate, sub.PolarID); err != nil {
		return err
	}
	if _, ok := r.s.subscriptions[sub.PolarID]; ok {
		return repository.ErrDuplicate
	}
	r.s.stamp(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	c := *sub
	r.s.subscriptions[sub.PolarID] = &c
	return nil
}

func (r subscriptionStore) Update(_ context.Context, sub *models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpSubscriptionUpdate, sub.PolarID); err != nil {
		return err
	}
	cur, ok := r.s.subscriptions[sub.PolarID]
	if !ok || cur.ID != sub.ID {
		return repository.ErrNotFound
	}
	r.s.stamp(&sub.ID, nil, &sub.UpdatedAt)
	c := *sub
	r.s.subscriptions[sub.PolarID] = &c
	return nil
}

func (r subscriptionStore) List(_ context.Context, q repository.ListQuery) ([]*models.Subscription, int64, error) {
	q.Normalize()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type entry struct {
		sub *models.Subscription
		row map[string]any
	}
	var matched []entry
	for _, v := range r.s.subscriptions {
		row := subscriptionRow(v)
		if q.Filters.MatchAll(row) {
			c := *v
			matched = append(matched, entry{sub: &c, row: row})
		}
	}
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	desc := q.SortOrder != "asc"
	sort.SliceStable(matched, func(i, j int) bool {
		cmp := types.CompareValues(matched[i].row[sortBy], matched[j].row[sortBy])
		if cmp == 0 {
			return matched[i].sub.PolarID < matched[j].sub.PolarID
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	total := int64(len(matched))
	out := make([]*models.Subscription, 0, q.Size)
	for i := q.From; i < len(matched) && len(out) < q.Size; i++ {
		out = append(out, matched[i].sub)
	}
	return out, total, nil
}

func subscriptionRow(s *models.Subscription) map[string]any {
	row := map[string]any{
		"polar_id":             s.PolarID,
		"polar_product_id":     s.PolarProductID,
		"polar_price_id":       s.PolarPriceID,
		"status":               string(s.Status),
		"currency":             s.Currency,
		"interval":             string(s.Interval),
		"amount":               s.Amount,
		"customer_id":          s.CustomerID,
		"cancel_at_period_end": s.CancelAtPeriodEnd,
		"created_at":           s.CreatedAt,
		"updated_at":           s.UpdatedAt,
		"user_id":              nil,
		"customer_email":       nil,
		"current_period_end":   nil,
		"started_at":           nil,
	}
	if s.UserID != nil && *s.UserID != "" {
		row["user_id"] = *s.UserID
	}
	if s.CustomerEmail != nil {
		row["customer_email"] = *s.CustomerEmail
	}
	if s.CurrentPeriodEnd != nil {
		row["current_period_end"] = *s.CurrentPeriodEnd
	}
	if s.StartedAt != nil {
		row["started_at"] = *s.StartedAt
	}
	return row
}

func (r subscriptionStore) AssignOrphans(_ context.Context, customerID, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, v := range r.s.subscriptions {
		if v.CustomerID == customerID && v.Orphaned() {
			uid := userID
			v.UserID = &uid
			v.UpdatedAt = r.s.now()
			n++
		}
	}
	return n, nil
}

func (r subscriptionStore) CountByStatus(context.Context) (map[types.SubscriptionStatus]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[types.SubscriptionStatus]int64{}
	for _, v := range r.s.subscriptions {
		out[v.Status]++
	}
	return out, nil
}

func (r subscriptionStore) CountOrphaned(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, v := range r.s.subscriptions {
		if v.Orphaned() {
			n++
		}
	}
	return n, nil
}

func (r subscriptionStore) ListByStatus(_ context.Context, statuses ...types.SubscriptionStatus) ([]*models.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Subscription
	for _, v := range r.s.subscriptions {
		if lo.Contains(statuses, v.Status) {
			c := *v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolarID < out[j].PolarID })
	return out, nil
}

func (r subscriptionStore) CountActiveByProduct(_ context.Context, polarProductID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, v := range r.s.subscriptions {
		if v.PolarProductID == polarProductID && v.Active() {
			n++
		}
	}
	return n, nil
}

type productStore struct{ s *Store }

func (r productStore) find(match func(*models.Product) bool) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.products {
		if match(v) {
			c := *v
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r productStore) Get(_ context.Context, id string) (*models.Product, error) {
	return r.find(func(p *models.Product) bool { return p.ID == id })
}

func (r productStore) GetByPolarProductID(_ context.Context, polarProductID string) (*models.Product, error) {
	if polarProductID == "" {
		return nil, repository.ErrNotFound
	}
	return r.find(func(p *models.Product) bool { return p.PolarProductID == polarProductID })
}

func (r productStore) GetByName(_ context.Context, name string) (*models.Product, error) {
	return r.find(func(p *models.Product) bool { return p.Name == name })
}

// clash reports a unique violation against rows other than p.
func (r productStore) clash(p *models.Product) bool {
	for _, v := range r.s.products {
		if v.ID == p.ID {
			continue
		}
		if v.Name == p.Name || (p.PolarProductID != "" && v.PolarProductID == p.PolarProductID) {
			return true
		}
	}
	return false
}

func (r productStore) Create(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpProductCreate, p.Name); err != nil {
		return err
	}
	if r.clash(p) {
		return repository.ErrDuplicate
	}
	r.s.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	c := *p
	r.s.products[p.ID] = &c
	return nil
}

func (r productStore) Update(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpProductUpdate, p.Name); err != nil {
		return err
	}
	if _, ok := r.s.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.clash(p) {
		return repository.ErrDuplicate
	}
	r.s.stamp(&p.ID, nil, &p.UpdatedAt)
	c := *p
	r.s.products[p.ID] = &c
	return nil
}

func (r productStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r productStore) List(_ context.Context, includeInactive bool) ([]*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Product
	for _, v := range r.s.products {
		if includeInactive || v.IsActive {
			c := *v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type userStore struct{ s *Store }

func (r userStore) Get(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r userStore) FindByEmail(_ context.Context, email string) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return strings.Compare(out[i].ID, out[j].ID) < 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r userStore) SetPolarCustomerID(_ context.Context, userID, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpUserLink, userID); err != nil {
		return err
	}
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	cid := customerID
	u.PolarCustomerID = &cid
	u.UpdatedAt = r.s.now()
	return nil
}

type adminStore struct{ s *Store }

func (r adminStore) GetAdmin(_ context.Context, id string) (*models.AdminUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	return &c, nil
}

type webhookEventStore struct{ s *Store }

func (r webhookEventStore) Append(_ context.Context, e *models.WebhookEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpWebhookAppend, e.Type); err != nil {
		return err
	}
	r.s.stamp(&e.ID, &e.CreatedAt, nil)
	c := *e
	r.s.webhookEvents = append(r.s.webhookEvents, &c)
	return nil
}

type auditStore struct{ s *Store }

func (r auditStore) Append(_ context.Context, e *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpAuditAppend, string(e.Action)); err != nil {
		return err
	}
	r.s.stamp(&e.ID, &e.CreatedAt, nil)
	c := *e
	r.s.auditLogs = append(r.s.auditLogs, &c)
	return nil
}

func (r auditStore) List(_ context.Context, q repository.AuditQuery) ([]*models.AuditLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[models.AuditAction]bool{}
	for _, a := range q.Actions {
		want[a] = true
	}
	var matched []*models.AuditLog
	for i := len(r.s.auditLogs) - 1; i >= 0; i-- {
		e := r.s.auditLogs[i]
		if len(want) > 0 && !want[e.Action] {
			continue
		}
		if q.ActorID != "" && e.ActorID != q.ActorID {
			continue
		}
		c := *e
		matched = append(matched, &c)
	}
	if q.Size <= 0 {
		q.Size = 20
	}
	if q.From < 0 {
		q.From = 0
	}
	total := int64(len(matched))
	if q.From >= len(matched) {
		return nil, total, nil
	}
	end := q.From + q.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.From:end], total, nil
}
