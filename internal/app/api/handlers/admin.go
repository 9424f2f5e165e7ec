package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_sync"
	"github.com/fatflowers/polaradmin/internal/app/service/product"
	"github.com/fatflowers/polaradmin/internal/app/service/statistics"
	"github.com/fatflowers/polaradmin/internal/app/service/subscription"
	"github.com/fatflowers/polaradmin/pkg/response"
)

// AdminServices groups the services behind the admin API.
type AdminServices struct {
	Sync          *polar_sync.Service
	Subscriptions *subscription.Service
	Products      *product.Service
	Statistics    *statistics.Service
	Audit         *audit.Service
}

type SyncPolarDataRequest struct {
	SyncType    polar_sync.SyncType `json:"sync_type" example:"all"`
	ForceUpdate bool                `json:"force_update"`
}

// @Summary      Sync Polar Data (Admin)
// @Description  Runs a full sweep of subscriptions, customers or both. Partial failures are reported in the result.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SyncPolarDataRequest true "Sync options"
// @Success      200  {object}  handlers.RespSyncResult
// @Router       /api/v1/admin/polar/sync [post]
func ApiSyncPolarData(svc *polar_sync.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SyncPolarDataRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.SyncPolarData(c.Request.Context(), actorID(c), req.SyncType, req.ForceUpdate)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Sync Polar Products (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespProductSyncResult
// @Router       /api/v1/admin/polar/sync_products [post]
func ApiSyncPolarProducts(svc *polar_sync.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.SyncWithPolar(c.Request.Context(), actorID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Sync Status (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespSyncStatus
// @Router       /api/v1/admin/polar/sync_status [get]
func ApiGetSyncStatus(svc *polar_sync.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.GetSyncStatus(c.Request.Context(), actorID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Check Polar Connection (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespConnectionStatus
// @Router       /api/v1/admin/polar/connection [get]
func ApiCheckPolarConnection(svc *polar_sync.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.CheckPolarConnection(c.Request.Context(), actorID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Subscriptions (Admin)
// @Description  Retrieves a paginated and filterable list of local subscriptions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body subscription.ScanSubscriptionsRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListSubscriptions
// @Router       /api/v1/admin/subscriptions/list [post]
func ApiListSubscriptions(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscription.ScanSubscriptionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.ScanSubscriptions(c.Request.Context(), actorID(c), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Assign Subscription User (Admin)
// @Description  Links a subscription to a local user by hand.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body subscription.AssignUserRequest true "Assignment"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/admin/subscriptions/assign_user [post]
func ApiAssignSubscriptionUser(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscription.AssignUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.AssignUser(c.Request.Context(), actorID(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Analytics Overview (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        data_items query []string false "Statistics to compute; empty means all" collectionFormat(multi)
// @Success      200  {object}  handlers.RespOverview
// @Router       /api/v1/admin/analytics/overview [get]
func ApiAnalyticsOverview(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.OverviewRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.Overview(c.Request.Context(), actorID(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Audit Logs (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        action    query []string false "Actions" collectionFormat(multi)
// @Param        actor_id  query string   false "Actor"
// @Param        from      query int      false "Offset"
// @Param        size      query int      false "Page size"
// @Success      200  {object}  handlers.RespAuditLogs
// @Router       /api/v1/admin/audit_logs [get]
func ApiListAuditLogs(svc *audit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req audit.ListRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.List(c.Request.Context(), actorID(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, s AdminServices) {
	r.POST("/polar/sync", ApiSyncPolarData(s.Sync))
	r.POST("/polar/sync_products", ApiSyncPolarProducts(s.Sync))
	r.GET("/polar/sync_status", ApiGetSyncStatus(s.Sync))
	r.GET("/polar/connection", ApiCheckPolarConnection(s.Sync))

	r.POST("/subscriptions/list", ApiListSubscriptions(s.Subscriptions))
	r.POST("/subscriptions/assign_user", ApiAssignSubscriptionUser(s.Subscriptions))
	r.GET("/users/:user_id/subscriptions", ApiUserSubscriptions(s.Subscriptions))

	r.GET("/analytics/overview", ApiAnalyticsOverview(s.Statistics))
	r.GET("/audit_logs", ApiListAuditLogs(s.Audit))

	RegisterAdminProductRoutes(r, s.Products)
}
