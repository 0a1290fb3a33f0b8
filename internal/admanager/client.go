package admanager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
	"github.com/fraszczakszymon/dfp-query-tool/internal/observability"
)

// lineItemQueryLimit caps order queries, matching the platform's page size.
const lineItemQueryLimit = 1000

// Client is a thin HTTP client for the ad platform's line-item, network and
// custom-targeting services. All requests carry the configured bearer token;
// obtaining that token (OAuth bootstrap) is the deployment's problem, not
// this client's.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	metrics observability.MetricsRegistry
	logger  *zap.Logger
}

// NewClient builds a Client for the given network base URL, for example
// "https://ads.example.com/v1/networks/1234". The underlying transport is
// instrumented for tracing.
func NewClient(baseURL, token string, timeout time.Duration, metrics observability.MetricsRegistry, logger *zap.Logger) *Client {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		metrics: metrics,
		logger:  logger,
	}
}

// remoteErrorBody is the platform's error envelope.
type remoteErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// do performs one request and decodes a 2xx response into out (when out is
// non-nil). Non-2xx responses become errors carrying the upstream message.
func (c *Client) do(ctx context.Context, service, method, httpMethod, path string, query url.Values, body, out any) error {
	start := time.Now()
	status := "error"
	defer func() {
		c.metrics.IncrementRemoteCalls(service, method, status)
		c.metrics.RecordRemoteCallLatency(service, method, time.Since(start))
	}()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s.%s request: %w", service, method, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, u, reqBody)
	if err != nil {
		return fmt.Errorf("build %s.%s request: %w", service, method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &models.RemoteError{Op: service + "." + method, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	status = strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &models.RemoteError{
			Op:         service + "." + method,
			StatusCode: resp.StatusCode,
			Err:        errors.New(upstreamMessage(resp)),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.RemoteError{Op: service + "." + method, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// upstreamMessage extracts the platform's error message, falling back to the
// raw body and finally the HTTP status.
func upstreamMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(raw) == 0 {
		return resp.Status
	}
	var envelope remoteErrorBody
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(bytes.TrimSpace(raw))
}

// CreateLineItem creates the line item and returns it with the platform's
// assigned ID.
func (c *Client) CreateLineItem(ctx context.Context, li *models.LineItem) (*models.LineItem, error) {
	var dto lineItemDTO
	if err := c.do(ctx, "LineItemService", "createLineItems", http.MethodPost, "/lineItems", nil, encodeLineItem(li), &dto); err != nil {
		return nil, err
	}
	created := decodeLineItem(dto)
	c.logger.Debug("line item created remotely", zap.Int64("id", created.ID))
	return &created, nil
}

type lineItemPage struct {
	LineItems          []lineItemDTO `json:"lineItems"`
	TotalResultSetSize int           `json:"totalResultSetSize"`
}

// LineItemsByOrder returns the order's non-archived line items in ascending
// ID order, capped at the platform page size.
func (c *Client) LineItemsByOrder(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	query := url.Values{}
	query.Set("orderId", strconv.FormatInt(orderID, 10))
	query.Set("isArchived", "false")
	query.Set("orderBy", "id ASC")
	query.Set("limit", strconv.Itoa(lineItemQueryLimit))

	var page lineItemPage
	if err := c.do(ctx, "LineItemService", "getLineItemsByStatement", http.MethodGet, "/lineItems", query, nil, &page); err != nil {
		return nil, err
	}
	items := make([]models.LineItem, 0, len(page.LineItems))
	for _, dto := range page.LineItems {
		items = append(items, decodeLineItem(dto))
	}
	return items, nil
}

// LineItemByID fetches a single line item, models.ErrNotFound on a miss.
func (c *Client) LineItemByID(ctx context.Context, id int64) (*models.LineItem, error) {
	var dto lineItemDTO
	path := "/lineItems/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, "LineItemService", "getLineItem", http.MethodGet, path, nil, nil, &dto); err != nil {
		return nil, lineItemNotFound(err)
	}
	li := decodeLineItem(dto)
	return &li, nil
}

// UpdateLineItem replaces the full line item document.
func (c *Client) UpdateLineItem(ctx context.Context, li *models.LineItem) error {
	path := "/lineItems/" + strconv.FormatInt(li.ID, 10)
	if err := c.do(ctx, "LineItemService", "updateLineItems", http.MethodPut, path, nil, encodeLineItem(li), nil); err != nil {
		return lineItemNotFound(err)
	}
	return nil
}

// lineItemNotFound turns a 404 on a line-item path into models.ErrNotFound.
// Only line-item lookups get this mapping; a 404 from the network or
// custom-targeting services means a broken base URL, not a missing line item,
// and stays a RemoteError.
func lineItemNotFound(err error) error {
	var re *models.RemoteError
	if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
		return models.ErrNotFound
	}
	return err
}
