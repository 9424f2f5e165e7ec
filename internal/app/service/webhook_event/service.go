package webhook_event

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/logctx"
)

const ProviderPolar = "polar"

type Service struct {
	store repository.WebhookEventStore
	log   *zap.SugaredLogger
	now   func() time.Time
}

func New(store repository.WebhookEventStore, log *zap.SugaredLogger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Record appends one delivery verbatim before any reconciliation runs. The
// write is synchronous: an event that cannot be logged is not applied.
func (s *Service) Record(ctx context.Context, eventID, eventType string, data json.RawMessage) (*models.WebhookEvent, error) {
	ev := &models.WebhookEvent{
		Provider:   ProviderPolar,
		EventID:    eventID,
		Type:       eventType,
		TraceID:    logctx.TraceID(ctx),
		ReceivedAt: s.now(),
		Data:       datatypes.JSON(data),
	}
	if len(ev.Data) == 0 {
		ev.Data = datatypes.JSON("null")
	}
	if err := s.store.Append(ctx, ev); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("webhook_event_save_failed", "event_id", eventID, "type", eventType, "error", err)
		return nil, err
	}
	return ev, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
