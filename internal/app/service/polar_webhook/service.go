package polar_webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/webhook_event"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/config"
	"github.com/fatflowers/polaradmin/pkg/logctx"
	"github.com/fatflowers/polaradmin/pkg/metrics"
)

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	// OutcomeNoop: the event targets a subscription that does not exist (or
	// already exists for a create) and changes nothing.
	OutcomeNoop Outcome = "noop"
	// OutcomeIgnored: the event type carries nothing to reconcile.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeStale: the payload is older than the stored record.
	OutcomeStale Outcome = "stale"
)

type Service struct {
	events      *webhook_event.Service
	subs        repository.SubscriptionStore
	users       UserResolver
	rejectStale bool
	metrics     *metrics.Domain
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewService(events *webhook_event.Service, subs repository.SubscriptionStore, users UserResolver, cfg config.BillingProviderConfig, m *metrics.Domain, log *zap.SugaredLogger) *Service {
	return &Service{
		events:      events,
		subs:        subs,
		users:       users,
		rejectStale: cfg.RejectStale,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// Handle logs ev and applies it to the local subscription it targets.
func (s *Service) Handle(ctx context.Context, ev *polar.Event) (Outcome, error) {
	lg := logctx.FromCtx(ctx, s.log).With("event_id", ev.ID, "event_type", ev.Type)
	if _, err := s.events.Record(ctx, ev.ID, ev.Type, ev.Data); err != nil {
		s.metrics.WebhookEvent(ev.Type, "error")
		lg.Errorw("webhook_polar_record_failed", "error", err)
		return "", fmt.Errorf("record webhook event: %w", err)
	}

	outcome, err := s.reconcile(ctx, lg, ev)
	if err != nil {
		s.metrics.WebhookEvent(ev.Type, "error")
		lg.Errorw("webhook_polar_handle_failed", "error", err)
		return "", err
	}
	s.metrics.WebhookEvent(ev.Type, string(outcome))
	lg.Infow("webhook_polar_handled", "outcome", outcome)
	return outcome, nil
}

func (s *Service) reconcile(ctx context.Context, lg *zap.SugaredLogger, ev *polar.Event) (Outcome, error) {
	switch ev.Type {
	case polar.EventOrderCreated:
		return OutcomeIgnored, nil
	case polar.EventSubscriptionCreated:
		p, err := decodeSubscription(ev.Data)
		if err != nil {
			return "", err
		}
		return s.create(ctx, lg, p)
	case polar.EventSubscriptionUpdated:
		return s.patch(ctx, lg, ev.Data, applyUpdate)
	case polar.EventSubscriptionActive:
		return s.patch(ctx, lg, ev.Data, applyActive)
	case polar.EventSubscriptionCanceled:
		return s.patch(ctx, lg, ev.Data, applyCanceled)
	case polar.EventSubscriptionUncanceled:
		return s.patch(ctx, lg, ev.Data, applyUncanceled)
	case polar.EventSubscriptionRevoked:
		now := s.now()
		return s.patch(ctx, lg, ev.Data, func(sub *models.Subscription, p *polar.Subscription) {
			applyRevoked(sub, p, now)
		})
	default:
		lg.Infow("webhook_polar_unhandled")
		return OutcomeIgnored, nil
	}
}

func decodeSubscription(data json.RawMessage) (*polar.Subscription, error) {
	var p polar.Subscription
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode subscription payload: %w", err)
	}
	if p.ID == "" {
		return nil, errors.New("subscription payload has no id")
	}
	return &p, nil
}

func (s *Service) create(ctx context.Context, lg *zap.SugaredLogger, p *polar.Subscription) (Outcome, error) {
	_, err := s.subs.GetByPolarID(ctx, p.ID)
	if err == nil {
		lg.Infow("webhook_polar_subscription_exists", "polar_id", p.ID)
		return OutcomeNoop, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	userID, err := s.ResolveOwner(ctx, p)
	if err != nil {
		return "", err
	}
	sub := NewSubscription(p, userID)
	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return OutcomeNoop, nil
		}
		return "", err
	}
	if userID == "" {
		lg.Warnw("webhook_polar_subscription_orphaned", "polar_id", p.ID, "customer_id", sub.CustomerID)
	}
	return OutcomeCreated, nil
}

// ResolveOwner prefers metadata.userId and falls back to the email lookup.
// No match is not an error: the subscription is stored orphaned.
func (s *Service) ResolveOwner(ctx context.Context, p *polar.Subscription) (string, error) {
	if id := p.MetadataUserID(); id != "" {
		return id, nil
	}
	userID, ok, err := s.users.ResolveByEmail(ctx, p.ResolvedEmail())
	if err != nil {
		return "", fmt.Errorf("resolve owner of %s: %w", p.ID, err)
	}
	if !ok {
		return "", nil
	}
	return userID, nil
}

func (s *Service) patch(ctx context.Context, lg *zap.SugaredLogger, data json.RawMessage, apply func(*models.Subscription, *polar.Subscription)) (Outcome, error) {
	p, err := decodeSubscription(data)
	if err != nil {
		return "", err
	}
	sub, err := s.subs.GetByPolarID(ctx, p.ID)
	if errors.Is(err, repository.ErrNotFound) {
		lg.Infow("webhook_polar_subscription_unknown", "polar_id", p.ID)
		return OutcomeNoop, nil
	}
	if err != nil {
		return "", err
	}
	if s.rejectStale && IsStale(sub, p) {
		lg.Warnw("webhook_polar_stale_write_skipped", "polar_id", p.ID,
			"stored_modified_at", sub.ProviderModifiedAt, "incoming_modified_at", p.ModifiedAt)
		return OutcomeStale, nil
	}
	apply(sub, p)
	if err := s.subs.Update(ctx, sub); err != nil {
		return "", err
	}
	return OutcomeUpdated, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(fx.Annotate(NewEmailUserResolver, fx.As(new(UserResolver)))),
)
