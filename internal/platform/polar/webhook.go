package polar

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fatflowers/polaradmin/pkg/config"
)

const secretPrefix = "whsec_"

// WebhookVerifier checks Standard Webhooks signatures: base64 HMAC-SHA256 of
// "<id>.<timestamp>.<raw body>" listed as "v1,<sig>" entries.
type WebhookVerifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier accepts "whsec_<base64>" secrets or a raw secret string.
func NewWebhookVerifier(secret string, tolerance time.Duration) (*WebhookVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	key := []byte(secret)
	if strings.HasPrefix(secret, secretPrefix) {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
		if err != nil {
			return nil, fmt.Errorf("polar: decode webhook secret: %w", err)
		}
		key = decoded
	}
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &WebhookVerifier{key: key, tolerance: tolerance, now: time.Now}, nil
}

// NewWebhookVerifierFromConfig is the fx constructor. A missing secret yields
// a verifier whose every call fails with ErrMissingWebhookSecret, so the
// service still starts and the webhook endpoint reports the misconfiguration.
func NewWebhookVerifierFromConfig(cfg config.BillingProviderConfig) (*WebhookVerifier, error) {
	v, err := NewWebhookVerifier(cfg.WebhookSecret, cfg.WebhookTolerance)
	if errors.Is(err, ErrMissingWebhookSecret) {
		return &WebhookVerifier{}, nil
	}
	return v, err
}

// WithClock replaces the time source.
func (v *WebhookVerifier) WithClock(now func() time.Time) *WebhookVerifier {
	v.now = now
	return v
}

// Sign returns the signature header value for a delivery.
func (v *WebhookVerifier) Sign(id string, ts time.Time, body []byte) string {
	return "v1," + v.compute(id, strconv.FormatInt(ts.Unix(), 10), body)
}

func (v *WebhookVerifier) compute(id, ts string, body []byte) string {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func header(h http.Header, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(h.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

// Verify authenticates body against the delivery headers and decodes it.
func (v *WebhookVerifier) Verify(body []byte, h http.Header) (*Event, error) {
	if v == nil || len(v.key) == 0 {
		return nil, ErrMissingWebhookSecret
	}
	id := header(h, "webhook-id", "svix-id")
	ts := header(h, "webhook-timestamp", "svix-timestamp")
	sigs := header(h, "webhook-signature", "svix-signature")
	if id == "" || ts == "" || sigs == "" {
		return nil, &WebhookVerificationError{Reason: "missing signature headers"}
	}

	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, &WebhookVerificationError{Reason: "invalid timestamp"}
	}
	sent := time.Unix(secs, 0)
	now := time.Now
	if v.now != nil {
		now = v.now
	}
	skew := now().Sub(sent)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.tolerance {
		return nil, &WebhookVerificationError{Reason: "timestamp outside tolerance"}
	}

	expected := []byte(v.compute(id, ts, body))
	matched := false
	for _, entry := range strings.Fields(sigs) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), expected) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, &WebhookVerificationError{Reason: "no matching signature"}
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("polar: decode webhook payload: %w", err)
	}
	ev.ID = id
	ev.Timestamp = sent
	return &ev, nil
}
