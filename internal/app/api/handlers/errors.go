package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/checkout"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/app/service/polar_sync"
	"github.com/fatflowers/polaradmin/internal/app/service/product"
	"github.com/fatflowers/polaradmin/internal/app/service/subscription"
	"github.com/fatflowers/polaradmin/pkg/logctx"
	"github.com/fatflowers/polaradmin/pkg/response"
)

// errorCode maps service errors onto envelope codes.
func errorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, permission.ErrAccessDenied):
		return response.APIResponseCodeForbidden
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, subscription.ErrUserNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, product.ErrNameTaken), errors.Is(err, product.ErrProductInUse), errors.Is(err, repository.ErrDuplicate):
		return response.APIResponseCodeConflict
	case errors.Is(err, product.ErrInvalid), errors.Is(err, subscription.ErrInvalidRequest),
		errors.Is(err, polar_sync.ErrInvalidSyncType), errors.Is(err, checkout.ErrInvalidRequest),
		errors.Is(err, checkout.ErrProductUnavailable):
		return response.APIResponseCodeBadRequest
	}
	return response.APIResponseCodeError
}

func writeError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
}

// actorID is the admin id set by the auth middleware.
func actorID(c *gin.Context) string {
	return c.GetString(logctx.GinActorIDKey)
}
