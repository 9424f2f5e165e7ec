// Package polar_sync runs admin-triggered reconciliation sweeps against the
// billing provider and reports their history.
package polar_sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_webhook"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/logctx"
	"github.com/fatflowers/polaradmin/pkg/metrics"
	"github.com/fatflowers/polaradmin/pkg/types"
)

type SyncType = types.SyncType

const (
	SyncTypeSubscriptions = types.SyncTypeSubscriptions
	SyncTypeCustomers     = types.SyncTypeCustomers
	SyncTypeAll           = types.SyncTypeAll
	// SyncTypeProducts labels product sweeps in audit entries; it is not
	// accepted by SyncPolarData.
	SyncTypeProducts SyncType = "products"
)

var ErrInvalidSyncType = errors.New("invalid sync type")

// Counts tallies per-record decisions of one entity sweep.
type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

func (c *Counts) add(o Counts) {
	c.Created += o.Created
	c.Updated += o.Updated
	c.Skipped += o.Skipped
}

type SyncResult struct {
	Success       bool     `json:"success"`
	SyncType      SyncType `json:"syncType"`
	ForceUpdate   bool     `json:"forceUpdate"`
	Created       int      `json:"created"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	Subscriptions *Counts  `json:"subscriptions,omitempty"`
	Customers     *Counts  `json:"customers,omitempty"`
	Products      *Counts  `json:"products,omitempty"`
	Errors        []string `json:"errors"`
	DurationMs    int64    `json:"durationMs"`
	// Error is set when the sweep itself failed and was aborted.
	Error string `json:"error,omitempty"`
}

// Owners resolves the local owner of a provider subscription.
type Owners interface {
	ResolveOwner(ctx context.Context, p *polar.Subscription) (string, error)
}

type Service struct {
	client   *polar.Client
	subs     repository.SubscriptionStore
	products repository.ProductStore
	users    repository.UserStore
	resolver polar_webhook.UserResolver
	owners   Owners
	gate     permission.Gate
	audit    *audit.Service
	metrics  *metrics.Domain
	log      *zap.SugaredLogger
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	// orgs caches organization names by id for the connection check.
	orgs *cache.Cache
}

func NewService(
	client *polar.Client,
	subs repository.SubscriptionStore,
	products repository.ProductStore,
	users repository.UserStore,
	resolver polar_webhook.UserResolver,
	webhooks *polar_webhook.Service,
	gate permission.Gate,
	auditSvc *audit.Service,
	m *metrics.Domain,
	log *zap.SugaredLogger,
) *Service {
	return &Service{
		client:   client,
		subs:     subs,
		products: products,
		users:    users,
		resolver: resolver,
		owners:   webhooks,
		gate:     gate,
		audit:    auditSvc,
		metrics:  m,
		log:      log,
		sleep:    polar.SleepContext,
		now:      time.Now,
		orgs:     cache.New(orgCacheTTL, 10*orgCacheTTL),
	}
}

// SyncPolarData sweeps subscriptions, customers or both. Only access denial
// and an unknown sync type are returned as errors; everything else ends up
// in the result and the audit trail.
func (s *Service) SyncPolarData(ctx context.Context, adminID string, syncType SyncType, forceUpdate bool) (*SyncResult, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, adminID, permission.ViewSubscriptions); err != nil {
		return nil, err
	}
	if syncType == "" {
		syncType = SyncTypeAll
	}
	if !syncType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSyncType, syncType)
	}

	lg := logctx.FromCtx(ctx, s.log).With("sync_type", syncType, "force_update", forceUpdate)
	start := s.now()
	defer s.metrics.ObserveProcess("polar_sync", string(syncType), start)

	s.recordAudit(ctx, lg, models.AuditActionPolarSyncStart, adminID, syncType, map[string]any{"forceUpdate": forceUpdate})

	res := &SyncResult{SyncType: syncType, ForceUpdate: forceUpdate, Errors: []string{}}
	var err error
	if syncType.IncludesSubscriptions() {
		c := Counts{}
		res.Subscriptions = &c
		err = s.syncSubscriptions(ctx, lg, forceUpdate, res.Subscriptions, &res.Errors)
	}
	if err == nil && syncType.IncludesCustomers() {
		c := Counts{}
		res.Customers = &c
		err = s.syncCustomers(ctx, lg, forceUpdate, res.Customers, &res.Errors)
	}
	s.finish(ctx, lg, adminID, res, start, err)
	return res, nil
}

// finish totals the result and writes the closing audit entry.
func (s *Service) finish(ctx context.Context, lg *zap.SugaredLogger, adminID string, res *SyncResult, start time.Time, err error) {
	var total Counts
	for _, c := range []*Counts{res.Subscriptions, res.Customers, res.Products} {
		if c != nil {
			total.add(*c)
		}
	}
	res.Created, res.Updated, res.Skipped = total.Created, total.Updated, total.Skipped
	res.DurationMs = s.now().Sub(start).Milliseconds()

	action := models.AuditActionPolarSyncSuccess
	switch {
	case err != nil:
		action = models.AuditActionPolarSyncFailed
		res.Error = err.Error()
	case len(res.Errors) > 0:
		action = models.AuditActionPolarSyncPartial
	}
	res.Success = err == nil && len(res.Errors) == 0

	details := map[string]any{
		"forceUpdate": res.ForceUpdate,
		"created":     res.Created,
		"updated":     res.Updated,
		"skipped":     res.Skipped,
		"errors":      res.Errors,
		"duration":    res.DurationMs,
	}
	if res.Error != "" {
		details["error"] = res.Error
	}
	s.recordAudit(ctx, lg, action, adminID, res.SyncType, details)

	if err != nil {
		lg.Errorw("polar_sync_failed", "error", err, "duration_ms", res.DurationMs)
		return
	}
	lg.Infow("polar_sync_finished",
		"created", res.Created, "updated", res.Updated, "skipped", res.Skipped,
		"errors", len(res.Errors), "duration_ms", res.DurationMs)
}

func (s *Service) recordAudit(ctx context.Context, lg *zap.SugaredLogger, action models.AuditAction, adminID string, syncType SyncType, details map[string]any) {
	details["syncType"] = syncType
	err := s.audit.Record(ctx, audit.Entry{
		Action:     action,
		ActorID:    adminID,
		TargetType: "polar_sync",
		TargetID:   string(syncType),
		Details:    details,
	})
	if err != nil {
		lg.Warnw("polar_sync_audit_failed", "action", action, "error", err)
	}
}

func (s *Service) pageSize() int {
	if n := s.client.Config().PageSize; n > 0 {
		return n
	}
	return 100
}

func (s *Service) pause(ctx context.Context) error {
	return s.sleep(ctx, s.client.Config().PageDelay)
}

func (s *Service) syncSubscriptions(ctx context.Context, lg *zap.SugaredLogger, force bool, counts *Counts, errs *[]string) error {
	limit := s.pageSize()
	for page := 1; ; page++ {
		res, err := s.client.FetchSubscriptions(ctx, page, limit)
		if err != nil {
			return fmt.Errorf("fetch subscriptions page %d: %w", page, err)
		}
		lg.Debugw("polar_sync_page_fetched", "entity", "subscriptions", "page", page, "items", len(res.Items))
		for i := range res.Items {
			outcome, err := s.syncSubscription(ctx, &res.Items[i], force)
			if err != nil {
				*errs = append(*errs, fmt.Sprintf("subscription %s: %v", res.Items[i].ID, err))
				s.metrics.SyncRecord("subscription", "error")
				continue
			}
			tally(counts, outcome)
			s.metrics.SyncRecord("subscription", outcome)
		}
		if !res.HasMore || len(res.Items) == 0 {
			return nil
		}
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
}

const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
	outcomeSkipped = "skipped"
)

func tally(c *Counts, outcome string) {
	switch outcome {
	case outcomeCreated:
		c.Created++
	case outcomeUpdated:
		c.Updated++
	default:
		c.Skipped++
	}
}

func (s *Service) syncSubscription(ctx context.Context, p *polar.Subscription, force bool) (string, error) {
	existing, err := s.subs.GetByPolarID(ctx, p.ID)
	switch {
	case err == nil:
		if !force {
			return outcomeSkipped, nil
		}
		polar_webhook.ApplyAll(existing, p)
		if err := s.subs.Update(ctx, existing); err != nil {
			return "", err
		}
		return outcomeUpdated, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", err
	}

	userID, err := s.owners.ResolveOwner(ctx, p)
	if err != nil {
		return "", err
	}
	if err := s.subs.Create(ctx, polar_webhook.NewSubscription(p, userID)); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A webhook created it between the lookup and the insert.
			return outcomeSkipped, nil
		}
		return "", err
	}
	return outcomeCreated, nil
}

func (s *Service) syncCustomers(ctx context.Context, lg *zap.SugaredLogger, force bool, counts *Counts, errs *[]string) error {
	limit := s.pageSize()
	for page := 1; ; page++ {
		res, err := s.client.FetchCustomers(ctx, page, limit)
		if err != nil {
			return fmt.Errorf("fetch customers page %d: %w", page, err)
		}
		lg.Debugw("polar_sync_page_fetched", "entity", "customers", "page", page, "items", len(res.Items))
		for i := range res.Items {
			outcome, err := s.syncCustomer(ctx, lg, &res.Items[i], force)
			if err != nil {
				*errs = append(*errs, fmt.Sprintf("customer %s (%s): %v", res.Items[i].ID, res.Items[i].Email, err))
				s.metrics.SyncRecord("customer", "error")
				continue
			}
			tally(counts, outcome)
			s.metrics.SyncRecord("customer", outcome)
		}
		if !res.HasMore || len(res.Items) == 0 {
			return nil
		}
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
}

// syncCustomer links a provider customer to the local user with the same
// email and hands that user any orphaned subscriptions of the customer.
func (s *Service) syncCustomer(ctx context.Context, lg *zap.SugaredLogger, c *polar.Customer, force bool) (string, error) {
	userID, ok, err := s.resolver.ResolveByEmail(ctx, c.Email)
	if err != nil {
		return "", err
	}
	if !ok {
		return outcomeSkipped, nil
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	linked := u.PolarCustomerID != nil && *u.PolarCustomerID != ""
	if linked && !force {
		return outcomeSkipped, nil
	}
	if err := s.users.SetPolarCustomerID(ctx, userID, c.ID); err != nil {
		return "", err
	}
	n, err := s.subs.AssignOrphans(ctx, c.ID, userID)
	if err != nil {
		return "", fmt.Errorf("assign orphans: %w", err)
	}
	if n > 0 {
		lg.Infow("polar_sync_orphans_assigned", "customer_id", c.ID, "user_id", userID, "count", n)
	}
	return outcomeUpdated, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
