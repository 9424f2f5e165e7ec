package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDomain_CountsAndReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDomain(reg)
	d.SyncRecord("subscription", "created")
	d.SyncRecord("subscription", "created")
	d.WebhookEvent("subscription.created", "handled")
	d.APIRetry("subscriptions")
	d.ObserveProcess("polar_sync", "all", time.Now())

	again := NewDomain(reg)
	again.SyncRecord("subscription", "created")

	require.Equal(t, 3.0, testutil.ToFloat64(d.syncRecords.WithLabelValues("subscription", "created")))
	require.Equal(t, 1.0, testutil.ToFloat64(d.webhookEvents.WithLabelValues("subscription.created", "handled")))
	require.Equal(t, 1.0, testutil.ToFloat64(d.apiRetries.WithLabelValues("subscriptions")))
}

func TestDomain_NilIsNoop(t *testing.T) {
	var d *Domain
	require.NotPanics(t, func() {
		d.SyncRecord("a", "b")
		d.WebhookEvent("a", "b")
		d.APIRequest("a", "200")
		d.APIRetry("a")
		d.ObserveProcess("a", "b", time.Now())
	})
}

func TestPrometheus_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{Subsystem: "test", Registry: reg})

	r := gin.New()
	p.Use(r)
	r.GET("/products/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Equal(t, 2.0, testutil.ToFloat64(p.reqCnt.WithLabelValues("200", "GET", "/products/:id", "")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "test_req_total")
}
