package polar

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/polaradmin/pkg/config"
)

var fixedNow = time.Unix(1_760_000_000, 0)

func signedHeaders(v *WebhookVerifier, id string, ts time.Time, body []byte) http.Header {
	h := http.Header{}
	h.Set("webhook-id", id)
	h.Set("webhook-timestamp", strconv.FormatInt(ts.Unix(), 10))
	h.Set("webhook-signature", v.Sign(id, ts, body))
	return h
}

func TestVerify(t *testing.T) {
	v, err := NewWebhookVerifier("polar_whs_secret", 5*time.Minute)
	require.NoError(t, err)
	v.WithClock(func() time.Time { return fixedNow })
	body := []byte(`{"type":"subscription.created","data":{"id":"sub_1"}}`)

	ev, err := v.Verify(body, signedHeaders(v, "evt_1", fixedNow, body))
	require.NoError(t, err)
	require.Equal(t, "evt_1", ev.ID)
	require.Equal(t, EventSubscriptionCreated, ev.Type)
	require.JSONEq(t, `{"id":"sub_1"}`, string(ev.Data))

	tests := []struct {
		name    string
		body    []byte
		headers func() http.Header
	}{
		{"tampered body", []byte(`{"type":"subscription.created","data":{"id":"sub_2"}}`), func() http.Header {
			return signedHeaders(v, "evt_1", fixedNow, body)
		}},
		{"missing headers", body, func() http.Header { return http.Header{} }},
		{"stale timestamp", body, func() http.Header {
			return signedHeaders(v, "evt_1", fixedNow.Add(-6*time.Minute), body)
		}},
		{"bad timestamp", body, func() http.Header {
			h := signedHeaders(v, "evt_1", fixedNow, body)
			h.Set("webhook-timestamp", "yesterday")
			return h
		}},
		{"wrong version", body, func() http.Header {
			h := signedHeaders(v, "evt_1", fixedNow, body)
			h.Set("webhook-signature", "v2,"+h.Get("webhook-signature")[3:])
			return h
		}},
		{"id swapped", body, func() http.Header {
			h := signedHeaders(v, "evt_1", fixedNow, body)
			h.Set("webhook-id", "evt_2")
			return h
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.body, tt.headers())
			var verr *WebhookVerificationError
			require.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
}

func TestVerify_AcceptsAnyListedSignature(t *testing.T) {
	v, err := NewWebhookVerifier("whsec_"+base64.StdEncoding.EncodeToString([]byte("raw-key")), 0)
	require.NoError(t, err)
	v.WithClock(func() time.Time { return fixedNow })
	body := []byte(`{"type":"order.created","data":{}}`)

	h := signedHeaders(v, "evt_9", fixedNow, body)
	h.Set("webhook-signature", "v1,bm90LWl0 "+h.Get("webhook-signature"))
	_, err = v.Verify(body, h)
	require.NoError(t, err)

	svix := http.Header{}
	svix.Set("svix-id", "evt_9")
	svix.Set("svix-timestamp", h.Get("webhook-timestamp"))
	svix.Set("svix-signature", v.Sign("evt_9", fixedNow, body))
	_, err = v.Verify(body, svix)
	require.NoError(t, err)
}

func TestVerifier_MissingSecret(t *testing.T) {
	_, err := NewWebhookVerifier("  ", time.Minute)
	require.ErrorIs(t, err, ErrMissingWebhookSecret)

	v, err := NewWebhookVerifierFromConfig(config.BillingProviderConfig{})
	require.NoError(t, err)
	_, err = v.Verify([]byte(`{}`), http.Header{})
	require.ErrorIs(t, err, ErrMissingWebhookSecret)

	_, err = NewWebhookVerifier("whsec_%%%", time.Minute)
	require.Error(t, err)
}

func TestVerify_InvalidJSONIsNotAVerificationError(t *testing.T) {
	v, _ := NewWebhookVerifier("s", time.Minute)
	v.WithClock(func() time.Time { return fixedNow })
	body := []byte(`not json`)
	_, err := v.Verify(body, signedHeaders(v, "evt", fixedNow, body))
	require.Error(t, err)
	var verr *WebhookVerificationError
	require.False(t, errors.As(err, &verr))
}
