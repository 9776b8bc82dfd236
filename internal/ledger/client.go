// Package ledger talks to the external transfer-query API and paces the
// traversal's calls against it.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"solana-whale-graph/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 10
)

// ErrMissingEndpoint is returned when a client is constructed without the
// transfer-query endpoint. Missing configuration is fatal at process start.
var ErrMissingEndpoint = errors.New("ledger: transfer endpoint is required")

// APIError is a transport-level or upstream failure of the transfer-query
// API. The traversal recovers from it locally as "no transfer found".
type APIError struct {
	Status  int    // HTTP status, 0 for success=false responses
	Message string // upstream message, if any
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ledger API error: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("ledger API error: %s", e.Message)
}

// RawTransfer is one unprocessed ledger record as returned by the API.
type RawTransfer struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	RawAmount   uint64 `json:"rawAmount"` // integer amount, scaled by 10^Decimals
	Decimals    int    `json:"decimals"`
	BlockTime   int64  `json:"blockTime"` // unix seconds
}

// TransfersRequest describes one transfer query. Direction is relative to
// Address: FlowIn asks for the largest inbound transfers, FlowOut outbound.
type TransfersRequest struct {
	Address   string
	Direction domain.FlowType
	MinAmount float64
	Page      int
	PageSize  int
}

// transfersResponse is the raw API envelope.
type transfersResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Data    []RawTransfer `json:"data"`
}

// Client queries the transfer-query HTTP API. It never retries; retry
// policy, if any, belongs upstream of this boundary.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithAPIKey sets the API key sent with each request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a transfer-query API client.
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchTransfers queries transfers for one address and direction, largest
// first. The caller only ever consumes the first record of a page.
func (c *Client) FetchTransfers(ctx context.Context, req TransfersRequest) ([]RawTransfer, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	q := url.Values{}
	q.Set("address", req.Address)
	q.Set("flow", string(req.Direction))
	q.Set("min_amount", strconv.FormatFloat(req.MinAmount, 'f', -1, 64))
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	q.Set("sort_by", "amount")
	q.Set("sort_order", "desc")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("token", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transfer query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: string(body)}
	}

	var envelope transfersResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Malformed response, treated the same as an API failure.
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if !envelope.Success {
		return nil, &APIError{Message: envelope.Message}
	}

	return envelope.Data, nil
}
