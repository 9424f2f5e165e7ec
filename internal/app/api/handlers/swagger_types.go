package handlers

import (
	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/checkout"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_sync"
	"github.com/fatflowers/polaradmin/internal/app/service/statistics"
	"github.com/fatflowers/polaradmin/internal/app/service/subscription"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/response"
)

// Envelope types below exist for the OpenAPI document only.

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespHealth struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    HealthStatus             `json:"data"`
}

type RespSyncResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    polar_sync.SyncResult    `json:"data"`
}

type RespProductSyncResult struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    polar_sync.ProductSyncResult `json:"data"`
}

type RespSyncStatus struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    polar_sync.SyncStatus    `json:"data"`
}

type RespConnectionStatus struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    polar_sync.ConnectionStatus `json:"data"`
}

type RespListSubscriptions struct {
	Code    response.APIResponseCode               `json:"code"`
	Message string                                 `json:"message"`
	Data    subscription.ScanSubscriptionsResponse `json:"data"`
}

type RespSubscription struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Subscription      `json:"data"`
}

type RespOverview struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    statistics.OverviewResponse `json:"data"`
}

type RespAuditLogs struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    audit.ListResponse       `json:"data"`
}

type RespProducts struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Product         `json:"data"`
}

type RespProduct struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Product           `json:"data"`
}

type RespCheckout struct {
	Code    response.APIResponseCode        `json:"code"`
	Message string                          `json:"message"`
	Data    checkout.CreateCheckoutResponse `json:"data"`
}
