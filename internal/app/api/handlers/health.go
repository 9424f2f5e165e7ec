package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/polaradmin/pkg/config"
	"github.com/fatflowers/polaradmin/pkg/response"
)

// HealthStatus reports liveness plus whether the billing integration can run.
type HealthStatus struct {
	Status            string `json:"status"`
	BillingConfigured bool   `json:"billing_configured"`
	WebhookConfigured bool   `json:"webhook_configured"`
}

// @Summary      Health check
// @Description  Returns service status and billing configuration state
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespHealth
// @Router       /healthz [get]
func ApiHealthz(cfg config.BillingProviderConfig) gin.HandlerFunc {
	st := HealthStatus{
		Status:            "ok",
		BillingConfigured: cfg.HasCredentials(),
		WebhookConfigured: cfg.WebhookSecret != "",
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(st))
	}
}

func RegisterHealthRoutes(r gin.IRouter, cfg config.BillingProviderConfig) {
	r.GET("/healthz", ApiHealthz(cfg))
}
