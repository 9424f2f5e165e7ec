package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/docs"
	"github.com/fatflowers/polaradmin/internal/app/api/handlers"
	mw "github.com/fatflowers/polaradmin/internal/app/api/middleware"
	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/checkout"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_sync"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_webhook"
	"github.com/fatflowers/polaradmin/internal/app/service/product"
	"github.com/fatflowers/polaradmin/internal/app/service/statistics"
	"github.com/fatflowers/polaradmin/internal/app/service/subscription"
	"github.com/fatflowers/polaradmin/internal/platform/polar"
	cfgpkg "github.com/fatflowers/polaradmin/pkg/config"
	"github.com/fatflowers/polaradmin/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger and access log are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware())
	return r
}

type routeParams struct {
	fx.In

	Log           *zap.SugaredLogger
	Config        *cfgpkg.Config
	Verifier      *polar.WebhookVerifier
	Webhooks      *polar_webhook.Service
	Sync          *polar_sync.Service
	Subscriptions *subscription.Service
	Products      *product.Service
	Statistics    *statistics.Service
	Audit         *audit.Service
	Checkout      *checkout.Service
}

func registerRoutes(r *gin.Engine, p routeParams) {
	log := p.Log
	if p.Config.MetricsAddr != "" {
		prom := metrics.NewPrometheus(metrics.NewPrometheusOptions{Logger: log})
		prom.SetListenAddress(p.Config.MetricsAddr)
		prom.Use(r)
		log.Infow("metrics started", "addr", p.Config.MetricsAddr)
	}

	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub, p.Config.PolarConfig())
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// The provider posts here; signature verification replaces auth.
	handlers.RegisterPaymentWebhookRoutes(pub.Group("/payments"), p.Verifier, p.Webhooks, log)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	// End-user auth sits in front of this service; user_id must come from it.
	handlers.RegisterPaymentRoutes(apiV1.Group("/payments"), p.Checkout)

	admin := apiV1.Group("/admin")
	admin.Use(mw.AdminAuthMiddleware(p.Config.Auth.JWTSecret, log))
	handlers.RegisterAdminRoutes(admin, handlers.AdminServices{
		Sync:          p.Sync,
		Subscriptions: p.Subscriptions,
		Products:      p.Products,
		Statistics:    p.Statistics,
		Audit:         p.Audit,
	})
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
