package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/pkg/logctx"
	"github.com/fatflowers/polaradmin/pkg/response"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errNoSecret     = errors.New("admin auth is not configured")
	errNoExpiry     = errors.New("token has no expiry")
)

// AdminAuthMiddleware accepts "Authorization: Bearer <HS256 JWT>" and stores
// the sub claim as the acting admin id. Without a secret every call is rejected.
func AdminAuthMiddleware(secret string, base *zap.SugaredLogger) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		actorID, err := parseAdminToken(c.GetHeader("Authorization"), key)
		if err != nil {
			logctx.FromGin(c, base).Warnw("admin_auth_rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
			return
		}
		c.Set(logctx.GinActorIDKey, actorID)
		c.Request = c.Request.WithContext(logctx.WithActorID(c.Request.Context(), actorID))
		c.Next()
	}
}

func parseAdminToken(header string, key []byte) (string, error) {
	if len(key) == 0 {
		return "", errNoSecret
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" || raw == strings.TrimSpace(header) {
		return "", errMissingToken
	}
	claims := &jwt.StandardClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}
	// StandardClaims.Valid accepts a zero exp.
	if claims.ExpiresAt == 0 {
		return "", errNoExpiry
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// SignAdminToken issues a token for actorID. Used by tooling and tests.
func SignAdminToken(secret, actorID string, expiresAt int64) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   actorID,
		ExpiresAt: expiresAt,
	}).SignedString([]byte(secret))
}
