package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/polaradmin/internal/app/service/subscription"
	"github.com/fatflowers/polaradmin/pkg/response"
	"github.com/fatflowers/polaradmin/pkg/types"
)

// @Summary      User Subscriptions (Admin)
// @Description  Lists the subscriptions owned by one user, newest first by default.
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        user_id     path   string  true   "User id"
// @Param        from        query  int     false  "Offset"
// @Param        size        query  int     false  "Page size"
// @Param        sort_by     query  string  false  "Sort column"
// @Param        sort_order  query  string  false  "asc or desc"
// @Success      200  {object}  handlers.RespListSubscriptions
// @Router       /api/v1/admin/users/{user_id}/subscriptions [get]
func ApiUserSubscriptions(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		from := 0
		if v := c.Query("from"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				from = n
			}
		}
		size := 100
		if v := c.Query("size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid size"))
				return
			}
			size = n
		}
		sortBy := c.Query("sort_by")
		if sortBy == "" {
			sortBy = "created_at"
		}
		sortOrder := c.Query("sort_order")
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}

		res, err := svc.ScanSubscriptions(c.Request.Context(), actorID(c), &subscription.ScanSubscriptionsRequest{
			Filters:   []*types.CommonFilter{{Field: "user_id", Operator: types.CommonFilterOperatorEq, Values: []any{userID}}},
			From:      from,
			Size:      size,
			SortBy:    sortBy,
			SortOrder: sortOrder,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}
