package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Full provider sweeps (15s - 5m) ---
	30000, 60000, 120000, 300000,
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
			m.Args,
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	}
	return metric
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsSyncRecords = &Metric{
	ID:          "syncRecords",
	Name:        "sync_records_total",
	Description: "Provider records processed by bulk sync, partitioned by entity and outcome.",
	Type:        "counter_vec",
	Args:        []string{"entity", "outcome"},
}

var MetricsWebhookEvents = &Metric{
	ID:          "webhookEvents",
	Name:        "webhook_events_total",
	Description: "Inbound provider webhook events, partitioned by event type and result.",
	Type:        "counter_vec",
	Args:        []string{"type", "result"},
}

var MetricsAPIRequests = &Metric{
	ID:          "apiRequests",
	Name:        "api_requests_total",
	Description: "Outbound provider API requests, partitioned by endpoint and status code.",
	Type:        "counter_vec",
	Args:        []string{"endpoint", "code"},
}

var MetricsAPIRetries = &Metric{
	ID:          "apiRetries",
	Name:        "api_retries_total",
	Description: "Outbound provider API retries after rate limiting.",
	Type:        "counter_vec",
	Args:        []string{"endpoint"},
}

const (
	RefererKey = "X-Referer"

	domainSubsystem = "polar"
)

// Domain holds the billing sync collectors. A nil *Domain is a valid no-op.
type Domain struct {
	bpDur         *prometheus.HistogramVec
	syncRecords   *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	apiRequests   *prometheus.CounterVec
	apiRetries    *prometheus.CounterVec
}

// NewDomain registers the billing collectors on reg, reusing collectors that
// were registered earlier with the same descriptor.
func NewDomain(reg prometheus.Registerer) *Domain {
	return &Domain{
		bpDur:         register(reg, MetricsBusinessProcess).(*prometheus.HistogramVec),
		syncRecords:   register(reg, MetricsSyncRecords).(*prometheus.CounterVec),
		webhookEvents: register(reg, MetricsWebhookEvents).(*prometheus.CounterVec),
		apiRequests:   register(reg, MetricsAPIRequests).(*prometheus.CounterVec),
		apiRetries:    register(reg, MetricsAPIRetries).(*prometheus.CounterVec),
	}
}

func register(reg prometheus.Registerer, m *Metric) prometheus.Collector {
	c := NewMetric(m, domainSubsystem)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			c = are.ExistingCollector
		}
	}
	m.MetricCollector = c
	return c
}

func (d *Domain) ObserveProcess(typ, subtype string, start time.Time) {
	if d == nil {
		return
	}
	d.bpDur.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

func (d *Domain) SyncRecord(entity, outcome string) {
	if d == nil {
		return
	}
	d.syncRecords.WithLabelValues(entity, outcome).Inc()
}

func (d *Domain) WebhookEvent(eventType, result string) {
	if d == nil {
		return
	}
	d.webhookEvents.WithLabelValues(eventType, result).Inc()
}

func (d *Domain) APIRequest(endpoint, code string) {
	if d == nil {
		return
	}
	d.apiRequests.WithLabelValues(endpoint, code).Inc()
}

func (d *Domain) APIRetry(endpoint string) {
	if d == nil {
		return
	}
	d.apiRetries.WithLabelValues(endpoint).Inc()
}

// MillisecondsSince returns the elapsed time since start in milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

var Module = fx.Options(
	fx.Provide(func() *Domain { return NewDomain(prometheus.DefaultRegisterer) }),
)
