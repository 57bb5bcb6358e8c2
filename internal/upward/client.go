package upward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jogardn/order-bridge/pkg/models"
	"github.com/sirupsen/logrus"
)

// APIKeyHeader is sent verbatim; Upward expects the lower-case underscore form.
const APIKeyHeader = "api_key"

const ordersEndpoint = "Orders"

// Response is the raw provider reply. Callers decide what a status means.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient expects baseURL to end with a slash. httpClient may be nil, in
// which case a client without a timeout override is used.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CreateOrder posts the order wrapped in a single-element array. It is not
// idempotent: two calls create two orders upstream.
func (c *Client) CreateOrder(ctx context.Context, order *models.OutboundOrder) (*Response, error) {
	c.logger.WithField("order_number", order.OrderNumber).Info("Sending order to Upward")

	jsonData, err := json.Marshal([]*models.OutboundOrder{order})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, ordersEndpoint, jsonData)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"status":       resp.StatusCode,
	}).Info("Received create response from Upward")

	return resp, nil
}

func (c *Client) DeleteOrder(ctx context.Context, orderNumber int) (*Response, error) {
	c.logger.WithField("order_number", orderNumber).Info("Deleting order in Upward")

	resp, err := c.do(ctx, http.MethodDelete, ordersEndpoint+"/"+strconv.Itoa(orderNumber), nil)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"order_number": orderNumber,
		"status":       resp.StatusCode,
	}).Info("Received delete response from Upward")

	return resp, nil
}

func (c *Client) GetOrder(ctx context.Context, orderNumber int) (*Response, error) {
	c.logger.WithField("order_number", orderNumber).Info("Fetching order from Upward")

	resp, err := c.do(ctx, http.MethodGet, ordersEndpoint+"/"+strconv.Itoa(orderNumber), nil)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"order_number": orderNumber,
		"status":       resp.StatusCode,
	}).Info("Received order from Upward")

	return resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Assigned directly so the header name is not canonicalised to Api_key.
	req.Header[APIKeyHeader] = []string{c.apiKey}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Upward: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Upward response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
