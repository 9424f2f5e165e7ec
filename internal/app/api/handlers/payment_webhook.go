package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/internal/app/service/polar_webhook"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/logctx"
)

const maxWebhookBody = 1 << 20

type WebhookReply struct {
	Message string `json:"message"`
}

// @Summary      Polar Webhook
// @Description  Receives Standard Webhooks deliveries from Polar. The signature is checked over the raw body.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        webhook-id         header  string  true  "Delivery id"
// @Param        webhook-timestamp  header  string  true  "Unix seconds"
// @Param        webhook-signature  header  string  true  "v1,<base64 signature> entries"
// @Param        payload  body  object  true  "Event payload"
// @Success      200  {object}  handlers.WebhookReply
// @Failure      400  {object}  handlers.WebhookReply
// @Failure      403  {object}  handlers.WebhookReply
// @Failure      413  {object}  handlers.WebhookReply
// @Failure      500  {object}  handlers.WebhookReply
// @Router       /payments/webhook [post]
func ApiPolarWebhook(verifier *polar.WebhookVerifier, svc *polar_webhook.Service, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := logctx.FromGin(c, base)
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			lg.Warnw("webhook_polar_read_failed", "error", err)
			c.JSON(http.StatusBadRequest, WebhookReply{Message: "unreadable body"})
			return
		}
		// A truncated body can never match its signature.
		if len(body) > maxWebhookBody {
			lg.Warnw("webhook_polar_too_large", "limit", maxWebhookBody)
			c.JSON(http.StatusRequestEntityTooLarge, WebhookReply{Message: "payload too large"})
			return
		}

		ev, err := verifier.Verify(body, c.Request.Header)
		if err != nil {
			var verr *polar.WebhookVerificationError
			switch {
			case errors.Is(err, polar.ErrMissingWebhookSecret):
				lg.Errorw("webhook_polar_misconfigured", "error", err)
				c.JSON(http.StatusInternalServerError, WebhookReply{Message: "webhook secret not configured"})
			case errors.As(err, &verr):
				lg.Warnw("webhook_polar_rejected", "reason", verr.Reason)
				c.JSON(http.StatusForbidden, WebhookReply{Message: "invalid signature"})
			default:
				lg.Warnw("webhook_polar_malformed", "error", err)
				c.JSON(http.StatusBadRequest, WebhookReply{Message: err.Error()})
			}
			return
		}

		lg.Infow("webhook_polar_received", "event_id", ev.ID, "event_type", ev.Type)
		// The service logs the outcome or the failure.
		if _, err := svc.Handle(c.Request.Context(), ev); err != nil {
			c.JSON(http.StatusBadRequest, WebhookReply{Message: err.Error()})
			return
		}
		c.JSON(http.StatusOK, WebhookReply{Message: "Webhook received!"})
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, verifier *polar.WebhookVerifier, svc *polar_webhook.Service, log *zap.SugaredLogger) {
	r.POST("/webhook", ApiPolarWebhook(verifier, svc, log))
}
