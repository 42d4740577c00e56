// Package client is a typed HTTP client for the oposiciones API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	base   string
	http   *http.Client
	tokens TokenStore
}

type Config struct {
	BaseURL string
	// Tokens defaults to an in-memory store.
	Tokens  TokenStore
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

func New(cfg Config) *Client {
	h := cfg.HTTPClient
	if h == nil {
		h = &http.Client{Timeout: cfg.Timeout}
		if cfg.Timeout <= 0 {
			h.Timeout = 30 * time.Second
		}
	}
	ts := cfg.Tokens
	if ts == nil {
		ts = NewMemoryTokens()
	}
	return &Client{base: strings.TrimRight(cfg.BaseURL, "/"), http: h, tokens: ts}
}

// Kind classifies a failed request.
type Kind string

const (
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
	KindInvalidState    Kind = "invalid_state"
	KindInternal        Kind = "internal"
)

// Error is a non-2xx response.
type Error struct {
	Kind   Kind
	Status int
	Detail string
}

func (e *Error) Error() string { return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail) }

var fallbackDetail = map[Kind]string{
	KindUnauthorized:    "Please log in again",
	KindForbidden:       "You do not have access to this resource",
	KindNotFound:        "Not found",
	KindInvalidArgument: "Invalid request",
	KindInvalidState:    "The request conflicts with the current state",
	KindInternal:        "Something went wrong, please try again",
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalidArgument
	case http.StatusConflict:
		return KindInvalidState
	default:
		return KindInternal
	}
}

func decodeError(res *http.Response) error {
	e := &Error{Kind: kindForStatus(res.StatusCode), Status: res.StatusCode}
	var body struct {
		Detail string `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if json.Unmarshal(raw, &body) == nil && body.Detail != "" {
		e.Detail = body.Detail
	} else {
		e.Detail = fallbackDetail[e.Kind]
	}
	return e
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s, ok := c.tokens.Load(); ok && s.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		if res.StatusCode == http.StatusUnauthorized {
			// the stored token is dead either way
			_ = c.tokens.Clear()
		}
		return decodeError(res)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// Health reports the service name when the API is up.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Service, nil
}
