package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/polaradmin/internal/app/service/product"
	"github.com/fatflowers/polaradmin/pkg/response"
)

// @Summary      List Products (Admin)
// @Tags         Products
// @Produce      json
// @Security     BearerAuth
// @Param        include_inactive query bool false "Include deactivated products"
// @Success      200  {object}  handlers.RespProducts
// @Router       /api/v1/admin/products [get]
func ApiListProducts(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
		res, err := svc.List(c.Request.Context(), actorID(c), includeInactive)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Create Product (Admin)
// @Tags         Products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body product.UpsertRequest true "Product"
// @Success      200  {object}  handlers.RespProduct
// @Router       /api/v1/admin/products [post]
func ApiCreateProduct(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.UpsertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.Create(c.Request.Context(), actorID(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Update Product (Admin)
// @Tags         Products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string                 true  "Product id"
// @Param        request body  product.UpsertRequest  true  "Product"
// @Success      200  {object}  handlers.RespProduct
// @Router       /api/v1/admin/products/{id} [put]
func ApiUpdateProduct(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.UpsertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.Update(c.Request.Context(), actorID(c), c.Param("id"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Deactivate Product (Admin)
// @Tags         Products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product id"
// @Success      200  {object}  handlers.RespProduct
// @Router       /api/v1/admin/products/{id}/deactivate [post]
func ApiDeactivateProduct(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Deactivate(c.Request.Context(), actorID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Delete Product (Admin)
// @Description  Fails with a conflict while active subscriptions reference the product.
// @Tags         Products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product id"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/products/{id} [delete]
func ApiDeleteProduct(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterAdminProductRoutes(r gin.IRouter, svc *product.Service) {
	r.GET("/products", ApiListProducts(svc))
	r.POST("/products", ApiCreateProduct(svc))
	r.PUT("/products/:id", ApiUpdateProduct(svc))
	r.POST("/products/:id/deactivate", ApiDeactivateProduct(svc))
	r.DELETE("/products/:id", ApiDeleteProduct(svc))
}
