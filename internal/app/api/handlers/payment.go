package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/polaradmin/internal/app/service/checkout"
	"github.com/fatflowers/polaradmin/pkg/response"
)

// @Summary      Create Checkout
// @Description  Opens a Polar checkout for a local product on behalf of a user.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body checkout.CreateCheckoutRequest true "Checkout request"
// @Success      200  {object}  handlers.RespCheckout
// @Router       /api/v1/payments/checkout [post]
func ApiCreateCheckout(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.CreateCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.CreateCheckout(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterPaymentRoutes(r gin.IRouter, svc *checkout.Service) {
	r.POST("/checkout", ApiCreateCheckout(svc))
}
