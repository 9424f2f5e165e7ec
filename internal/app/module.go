package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/polaradmin/internal/app/api/server"
	"github.com/fatflowers/polaradmin/internal/app/repository/gormrepo"
	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/checkout"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_sync"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_webhook"
	"github.com/fatflowers/polaradmin/internal/app/service/product"
	"github.com/fatflowers/polaradmin/internal/app/service/statistics"
	"github.com/fatflowers/polaradmin/internal/app/service/subscription"
	"github.com/fatflowers/polaradmin/internal/app/service/webhook_event"
	"github.com/fatflowers/polaradmin/internal/platform/db"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	"github.com/fatflowers/polaradmin/pkg/config"
	"github.com/fatflowers/polaradmin/pkg/logger"
	"github.com/fatflowers/polaradmin/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	gormrepo.Module,
	polar.Module,
	server.Module,
	permission.Module,
	audit.Module,
	webhook_event.Module,
	polar_webhook.Module,
	polar_sync.Module,
	product.Module,
	subscription.Module,
	statistics.Module,
	checkout.Module,
)
