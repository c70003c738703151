// Package api is the HTTP client for the marketplace API. Every call is a
// single attempt: failures surface to the caller and are never retried here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sandipan-das-sd/lms/internal/apierr"
	"github.com/sandipan-das-sd/lms/internal/models"
)

type Config struct {
	BaseURL string
	Timeout time.Duration

	BreakerMaxFailures uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
}

type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.SugaredLogger
}

func New(cfg Config, log *zap.SugaredLogger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    20,
		IdleConnTimeout: 90 * time.Second,
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base: base,
		http: &http.Client{
			Transport: newBreakerTransport(tr, cfg, log),
			Timeout:   timeout,
		},
		log: log,
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// do sends the request and decodes the response envelope. A non-2xx status
// or success=false becomes a *apierr.ServerError carrying the server message.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &apierr.ServerError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("%w: %v", apierr.ErrMalformedResponse, err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return nil, &apierr.ServerError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, opts ...requestOption) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, opts ...requestOption) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(req)
	}
	return c.do(req)
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withRefreshCookie(token string) requestOption {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: token})
	}
}
