// Package client implements Component F (spec.md §4.F): a store.Store
// that speaks the serverkv/service line protocol over HTTP.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/internal/logger"
	"github.com/hubert-project/hubert/store"
)

// existsProbeTimeout bounds the single probe Exists performs
// (spec.md §4.F).
const existsProbeTimeout = 2 * time.Second

// Client is an HTTP transport for the unified store contract, modeled on
// the teacher's pkg/agent/transport/http.HTTPTransport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client (timeout, TLS, etc).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger overrides the default logger.
func WithLogger(log logger.Logger) Option {
	return func(cl *Client) { cl.log = log }
}

// New creates a Client targeting baseURL (e.g. "http://127.0.0.1:45678").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ store.Store = (*Client)(nil)

// Put formats the two- or three-line body and POSTs it to /put.
func (c *Client) Put(ctx context.Context, arid envelope.ARID, env envelope.Envelope, opts store.PutOptions) (string, error) {
	body := arid.String() + "\n" + env.String()
	if opts.TTL > 0 {
		body += "\n" + strconv.FormatInt(int64(opts.TTL.Seconds()), 10)
	}

	status, respBody, err := c.post(ctx, "/put", body)
	if err != nil {
		return "", store.NewNetworkError("server", err)
	}

	switch status {
	case http.StatusOK:
		if opts.Verbose {
			c.log.Info("server-client put: ok", logger.String("arid", arid.String()))
		}
		return fmt.Sprintf("server://%s/put#%s", c.baseURL, arid.String()), nil
	case http.StatusConflict:
		return "", store.NewAlreadyExists(arid)
	default:
		return "", fmt.Errorf("serverkv client: put failed with status %d: %s", status, respBody)
	}
}

// Get POSTs to /get in a poll loop at store.PollInterval until the
// deadline, per spec.md §4.F.
func (c *Client) Get(ctx context.Context, arid envelope.ARID, opts store.GetOptions) (*envelope.Envelope, error) {
	env, found, err := store.Poll(ctx, opts.Timeout, opts.Verbose, c.log, func(ctx context.Context) (envelope.Envelope, bool, error) {
		status, body, err := c.post(ctx, "/get", arid.String())
		if err != nil {
			return envelope.Envelope{}, false, store.NewNetworkError("server", err)
		}
		switch status {
		case http.StatusOK:
			env, err := envelope.Parse(body)
			if err != nil {
				return envelope.Envelope{}, false, fmt.Errorf("%w: %v", store.ErrDecode, err)
			}
			return env, true, nil
		case http.StatusNotFound:
			return envelope.Envelope{}, false, nil
		default:
			return envelope.Envelope{}, false, fmt.Errorf("serverkv client: get failed with status %d: %s", status, body)
		}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &env, nil
}

// Exists performs a single /get with a short timeout.
func (c *Client) Exists(ctx context.Context, arid envelope.ARID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, existsProbeTimeout)
	defer cancel()

	status, body, err := c.post(ctx, "/get", arid.String())
	if err != nil {
		return false, store.NewNetworkError("server", err)
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("serverkv client: exists failed with status %d: %s", status, body)
	}
}

func (c *Client) post(ctx context.Context, path, body string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString(body))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, strings.TrimRight(string(respBody), "\n"), nil
}
