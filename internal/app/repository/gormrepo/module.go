// Package gormrepo implements the repository contracts on postgres via GORM.
package gormrepo

import (
	"go.uber.org/fx"

	"github.com/fatflowers/polaradmin/pkg/tool"
)

func ensureID(id *string) {
	if *id == "" {
		*id = tool.GenerateUUIDV7()
	}
}

var Module = fx.Options(
	fx.Provide(NewSubscriptionStore),
	fx.Provide(NewProductStore),
	fx.Provide(NewUserStore),
	fx.Provide(NewAdminStore),
	fx.Provide(NewWebhookEventStore),
	fx.Provide(NewAuditStore),
)
