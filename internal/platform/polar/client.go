// Package polar is the billing provider client: authenticated, paginated and
// rate-limit aware access to the Polar REST API plus webhook verification.
package polar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/pkg/config"
	"github.com/fatflowers/polaradmin/pkg/metrics"
)

const maxErrorBody = 4 << 10

type Client struct {
	cfg     config.BillingProviderConfig
	http    *http.Client
	retry   RetryPolicy
	log     *zap.SugaredLogger
	metrics *metrics.Domain
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithRetryPolicy(p RetryPolicy) Option { return func(c *Client) { c.retry = p } }

func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.log = l } }

func WithMetrics(m *metrics.Domain) Option { return func(c *Client) { c.metrics = m } }

// New builds a client from the provider value object.
func New(cfg config.BillingProviderConfig, opts ...Option) *Client {
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.RequestTimeout},
		retry: DefaultRetryPolicy(cfg.MaxAttempts, cfg.DefaultBackoff),
		log:   zap.NewNop().Sugar(),
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = "https://api.polar.sh"
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewClient is the fx constructor.
func NewClient(cfg config.BillingProviderConfig, log *zap.SugaredLogger, m *metrics.Domain) *Client {
	return New(cfg, WithLogger(log), WithMetrics(m))
}

// Config returns the provider settings the client was built with.
func (c *Client) Config() config.BillingProviderConfig { return c.cfg }

func (c *Client) FetchSubscriptions(ctx context.Context, page, limit int) (*Page[Subscription], error) {
	var resp listResponse[Subscription]
	if err := c.list(ctx, "subscriptions", "/v1/subscriptions", page, limit, nil, &resp); err != nil {
		return nil, err
	}
	return newPage(resp, page, limit), nil
}

func (c *Client) FetchCustomers(ctx context.Context, page, limit int) (*Page[Customer], error) {
	var resp listResponse[Customer]
	if err := c.list(ctx, "customers", "/v1/customers", page, limit, nil, &resp); err != nil {
		return nil, err
	}
	return newPage(resp, page, limit), nil
}

// FetchProducts returns every non-archived product, paging internally.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	limit := c.pageSize()
	extra := url.Values{"is_archived": {"false"}}
	var all []Product
	for page := 1; ; page++ {
		var resp listResponse[Product]
		if err := c.list(ctx, "products", "/v1/products", page, limit, extra, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Items...)
		if !newPage(resp, page, limit).HasMore || len(resp.Items) == 0 {
			return all, nil
		}
		if err := c.retry.sleep(ctx, c.cfg.PageDelay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	var out Product
	if err := c.do(ctx, "product", http.MethodGet, "/v1/products/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrganization(ctx context.Context) (*Organization, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	var out Organization
	if err := c.do(ctx, "organization", http.MethodGet, "/v1/organizations/"+url.PathEscape(c.cfg.OrganizationID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	var out Checkout
	if err := c.do(ctx, "checkout", http.MethodPost, "/v1/checkouts", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) pageSize() int {
	if c.cfg.PageSize > 0 {
		return c.cfg.PageSize
	}
	return 100
}

func (c *Client) requireCredentials() error {
	if !c.cfg.HasCredentials() {
		return ErrMissingCredentials
	}
	return nil
}

func (c *Client) list(ctx context.Context, endpoint, path string, page, limit int, extra url.Values, out any) error {
	if err := c.requireCredentials(); err != nil {
		return err
	}
	if page < 1 {
		return fmt.Errorf("polar %s: page must start at 1, got %d", endpoint, page)
	}
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("organization_id", c.cfg.OrganizationID)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return c.do(ctx, endpoint, http.MethodGet, path, q, nil, out)
}

// do sends one logical request, retrying per the policy on 429.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body any, out any) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("polar %s: encode request: %w", endpoint, err)
		}
		payload = b
	}

	for attempt := 1; ; attempt++ {
		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rdr)
		if err != nil {
			return fmt.Errorf("polar %s: build request: %w", endpoint, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("polar %s: %w", endpoint, err)
		}
		c.metrics.APIRequest(endpoint, strconv.Itoa(resp.StatusCode))

		if c.retry.ShouldRetry(attempt, resp.StatusCode) {
			delay := c.retry.Delay(resp.Header)
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
			resp.Body.Close()
			c.metrics.APIRetry(endpoint)
			c.log.Warnw("polar_rate_limited", "endpoint", endpoint, "attempt", attempt, "retry_in", delay.String())
			if err := c.retry.sleep(ctx, delay); err != nil {
				return fmt.Errorf("polar %s: %w", endpoint, err)
			}
			continue
		}

		err = decode(endpoint, resp, out)
		resp.Body.Close()
		return err
	}
}

func decode(endpoint string, resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("polar %s: decode response: %w", endpoint, err)
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Provide(NewWebhookVerifierFromConfig),
)
