package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fatflowers/polaradmin/pkg/logctx"
)

func TestTraceAndRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core).Sugar()

	r := gin.New()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(base), AccessLogMiddleware(base))
	r.GET("/ping", func(c *gin.Context) {
		require.Equal(t, "req-1", logctx.TraceID(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	entries := logs.FilterMessage("http_access").All()
	require.Len(t, entries, 1)
	require.Equal(t, "req-1", entries[0].ContextMap()["trace_id"])
	require.Equal(t, "/ping", entries[0].ContextMap()["path"])
}

func TestParseAdminToken(t *testing.T) {
	key := []byte("k")
	good, err := SignAdminToken("k", "admin-1", time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)
	expired, err := SignAdminToken("k", "admin-1", time.Now().Add(-time.Hour).Unix())
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}).SignedString(key)
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{Subject: "admin-1"}).SignedString(key)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		key     []byte
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer " + good, key: key, want: "admin-1"},
		{name: "no secret", header: "Bearer " + good, wantErr: true},
		{name: "no header", key: key, wantErr: true},
		{name: "no bearer prefix", header: good, key: key, wantErr: true},
		{name: "expired", header: "Bearer " + expired, key: key, wantErr: true},
		{name: "wrong key", header: "Bearer " + good, key: []byte("other"), wantErr: true},
		{name: "no subject", header: "Bearer " + noSub, key: key, wantErr: true},
		{name: "no expiry", header: "Bearer " + noExp, key: key, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAdminToken(tt.header, tt.key)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAdminAuthMiddlewareSetsActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminAuthMiddleware("k", zap.NewNop().Sugar()))
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = c.GetString(logctx.GinActorIDKey)
		c.Status(http.StatusOK)
	})

	tok, err := SignAdminToken("k", "admin-7", time.Now().Add(time.Minute).Unix())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "admin-7", seen)

	seen = ""
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Empty(t, seen)
	require.Contains(t, w.Body.String(), "40100")
}
