package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/xerrors"

	"github.com/winefeed/catalog-sync/pkg/types"
)

const (
	BaseURL = "https://app.salsify.com/api/v1/"

	defaultDialTimeout = 5 * time.Second
	defaultTimeout     = 10 * time.Second
)

type Option struct {
	BaseURL     string
	Token       string
	DialTimeout time.Duration
	Timeout     time.Duration
}

// Client updates products in the catalog API, one request per record.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

func NewClient(opt Option) *Client {
	if opt.BaseURL == "" {
		opt.BaseURL = BaseURL
	}
	if !strings.HasSuffix(opt.BaseURL, "/") {
		opt.BaseURL += "/"
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = defaultDialTimeout
	}
	if opt.Timeout == 0 {
		opt.Timeout = defaultTimeout
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.DialContext = (&net.Dialer{
		Timeout:   opt.DialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   opt.Timeout,
	}
	// Every update is attempted exactly once.
	client.RetryMax = 0
	client.Logger = slog.Default()
	client.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			slog.Warn("Unexpected http response", slog.String("url", resp.Request.URL.String()), slog.String("status", resp.Status))
		}
	}
	client.ErrorHandler = func(resp *http.Response, err error, numTries int) (*http.Response, error) {
		if err == nil {
			// Let the caller inspect the status code.
			return resp, nil
		}
		logger := slog.Default()
		if resp != nil {
			logger = slog.With(slog.String("url", resp.Request.URL.String()), slog.Int("status_code", resp.StatusCode),
				slog.Int("num_tries", numTries))
		}
		logger.Debug("HTTP request failed", slog.String("error", err.Error()))
		return resp, xerrors.Errorf("HTTP request failed: %w", err)
	}

	return &Client{
		http:    client,
		baseURL: opt.BaseURL,
		token:   opt.Token,
		logger:  slog.Default().With(slog.String("component", "catalog")),
	}
}

// Publish sends the full record to products/{SKU}.
// Any failure, including transport errors, is returned as *types.PublishError.
func (c *Client) Publish(ctx context.Context, record types.Record) (types.Payload, error) {
	sku := record.SKU()
	c.logger.Debug("Updating product", slog.String("sku", sku))
	payload, err := c.publish(ctx, record)
	if err != nil {
		var pubErr *types.PublishError
		if xerrors.As(err, &pubErr) {
			pubErr.SKU = sku
			return nil, pubErr
		}
		return nil, &types.PublishError{SKU: sku, Err: err}
	}
	return payload, nil
}

func (c *Client) publish(ctx context.Context, record types.Record) (types.Payload, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, xerrors.Errorf("unable to marshal record: %w", err)
	}

	u := c.baseURL + "products/" + url.PathEscape(record.SKU())
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, u, body)
	if err != nil {
		return nil, xerrors.Errorf("unable to create a HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("http error (%s): %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp)
}

func handleResponse(resp *http.Response) (types.Payload, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.PublishError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("unable to read response body: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return types.SuccessPayload(), nil
	}

	var payload types.Payload
	if err = json.Unmarshal(b, &payload); err != nil {
		return nil, xerrors.Errorf("unable to decode response body: %w", err)
	}
	return payload, nil
}

// statusText strips the numeric code from resp.Status ("404 Not Found" -> "Not Found").
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
