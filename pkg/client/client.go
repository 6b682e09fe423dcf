package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/platinummonkey/tenantadmin/pkg/contextkeys"
	"github.com/platinummonkey/tenantadmin/pkg/normalize"
	"github.com/platinummonkey/tenantadmin/pkg/observability"
)

// Options configures a tenant API client
type Options struct {
	// BaseURL is the API root, e.g. https://crm.example.com/api
	BaseURL string
	// TenantID is sent as X-Tenant-ID unless the request context overrides it
	TenantID string

	// Token is a static bearer token. Ignored when OAuth2 is set.
	Token string
	// OAuth2 enables the client credentials grant
	OAuth2 *clientcredentials.Config

	Timeout time.Duration
	// HTTPClient overrides the base client; its transport is still instrumented
	HTTPClient *http.Client

	// ActivityRetries is the number of retries after the first failed
	// activity fetch. Other endpoints never retry.
	ActivityRetries int
	RetryBaseDelay  time.Duration

	Normalizer *normalize.Normalizer
	Logger     *observability.Logger
	Metrics    *observability.Metrics
}

// Client is a typed client for the tenant RBAC endpoints
type Client struct {
	httpClient      *http.Client
	baseURL         string
	tenantID        string
	token           string
	activityRetries int
	retryBaseDelay  time.Duration
	normalizer      *normalize.Normalizer
	logger          *observability.Logger
	metrics         *observability.Metrics
}

// New creates a tenant API client
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ActivityRetries < 0 {
		opts.ActivityRetries = 0
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 200 * time.Millisecond
	}
	if opts.Normalizer == nil {
		opts.Normalizer = normalize.New()
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}

	return &Client{
		httpClient:      buildHTTPClient(opts),
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		tenantID:        opts.TenantID,
		token:           opts.Token,
		activityRetries: opts.ActivityRetries,
		retryBaseDelay:  opts.RetryBaseDelay,
		normalizer:      opts.Normalizer,
		logger:          opts.Logger.WithField("component", "tenant_client"),
		metrics:         opts.Metrics,
	}, nil
}

func buildHTTPClient(opts Options) *http.Client {
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	instrumented := &http.Client{
		Transport:     otelhttp.NewTransport(transport),
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       opts.Timeout,
	}

	if opts.OAuth2 == nil {
		return instrumented
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, instrumented)
	authed := opts.OAuth2.Client(ctx)
	authed.Timeout = opts.Timeout
	return authed
}

// do performs one request and returns the raw response body of a 2xx answer
func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, validationError(op, fmt.Sprintf("invalid request body: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, networkError(op, err)
	}

	requestID := contextkeys.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	tenantID := contextkeys.GetTenantID(ctx)
	if tenantID == "" {
		tenantID = c.tenantID
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := c.logger.WithFields(map[string]interface{}{
		"operation":  op,
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(op, method, 0, time.Since(start))
		c.metrics.RecordClientError(op, string(KindNetwork))
		logger.WithError(err).Warn("tenant API request failed")
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.RecordRequest(op, method, resp.StatusCode, time.Since(start))
	if err != nil {
		c.metrics.RecordClientError(op, string(KindNetwork))
		return nil, networkError(op, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := statusError(op, resp.StatusCode, data)
		c.metrics.RecordClientError(op, string(apiErr.Kind))
		logger.WithField("status", resp.StatusCode).Warnf("tenant API returned %s error", apiErr.Kind)
		return nil, apiErr
	}

	logger.WithField("status", resp.StatusCode).Debug("tenant API request completed")
	return data, nil
}

// Normalizer returns the normalizer used to decode responses
func (c *Client) Normalizer() *normalize.Normalizer {
	return c.normalizer
}

func pathf(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}

func requireIDs(op string, ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return validationError(op, "identifier is required")
		}
	}
	return nil
}
