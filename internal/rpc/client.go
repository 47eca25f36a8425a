// Package rpc implements a JSON-RPC 2.0 client over HTTP for the standard
// Substrate node methods (state_*, chain_*, system_*, payment_*). It
// multiplexes concurrent calls on one pooled http.Client the way the
// teacher's core.ConnPool multiplexes TCP connections per address.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Client is a JSON-RPC client bound to a single node endpoint. One Client
// is shared across all requests targeting the same chain; it is safe for
// concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	log      *logrus.Entry
	nextID   atomic.Int64
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithTimeout overrides the default per-call timeout (30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger attaches a logrus entry used for request/response logging.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

// New constructs a Client for the given HTTP(S) JSON-RPC endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		timeout:  30 * time.Second,
		log:      logrus.WithField("component", "rpc"),
		http: &http.Client{
			// the underlying http.Transport pools and reuses connections to
			// the node the same way core.ConnPool pools TCP connections.
			Transport: http.DefaultTransport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonrpcError   `json:"error"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *jsonrpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TimeoutError is returned when a call exceeds its deadline.
type TimeoutError struct {
	Method string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rpc: method %s timed out", e.Method)
}

// Call invokes method with params and unmarshals the result into out. out
// may be nil to discard the result, or a pointer for decoding. A nil
// result (the node replying with JSON null) leaves out untouched and
// returns ok=false so callers can distinguish "absent" from "zero value".
func (c *Client) Call(ctx context.Context, out any, method string, params ...any) (ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id := c.nextID.Add(1)
	reqBody := jsonrpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return false, fmt.Errorf("rpc: marshal request for %s: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf))
	if err != nil {
		return false, fmt.Errorf("rpc: build request for %s: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return false, &TimeoutError{Method: method}
		}
		return false, fmt.Errorf("rpc: call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var rpcResp jsonrpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return false, fmt.Errorf("rpc: decode response for %s: %w", method, err)
	}
	c.log.WithFields(logrus.Fields{
		"method":    method,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("rpc call")

	if rpcResp.Error != nil {
		return false, rpcResp.Error
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return false, fmt.Errorf("rpc: unmarshal result for %s: %w", method, err)
		}
	}
	return true, nil
}

// Endpoint returns the node endpoint this client is bound to.
func (c *Client) Endpoint() string { return c.endpoint }
