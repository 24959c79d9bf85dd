package graph

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"graphharvest/pkg/config"
	errs "graphharvest/pkg/errors"
	"graphharvest/pkg/logger"
	"graphharvest/pkg/ratelimit"
)

// RequestObserver receives one call per HTTP round trip
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, duration time.Duration)
}

// Client is a minimal Graph API client. Object and first-page calls report
// Graph errors as *errors.Error; next-page calls return the decoded page and
// leave any error object in Connection.Error.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	userAgent  string
	limiter    ratelimit.Limiter
	observer   RequestObserver
	logger     logger.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLimiter paces every request through l
func WithLimiter(l ratelimit.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithRequestObserver attaches per-request accounting
func WithRequestObserver(o RequestObserver) ClientOption {
	return func(c *Client) { c.observer = o }
}

// WithClientLogger sets the logger
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithBaseTransport replaces the transport wrapped by the token transport
func WithBaseTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		if t, ok := c.httpClient.Transport.(*oauth2.Transport); ok {
			t.Base = rt
		}
	}
}

// NewClient creates a client authenticating every request with tokens
func NewClient(cfg config.GraphConfig, tokens oauth2.TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &oauth2.Transport{Source: tokens, Base: http.DefaultTransport},
		},
		baseURL:   cfg.BaseURL,
		version:   cfg.APIVersion,
		userAgent: cfg.UserAgent,
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StaticToken wraps a long-lived access token as a token source
func StaticToken(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

// FetchObject fetches a single object by id
func (c *Client) FetchObject(ctx context.Context, id, fields string) (Record, error) {
	endpoint := buildURL(c.baseURL, c.version, []string{id}, FieldParams(fields))

	status, body, err := c.get(ctx, endpoint, "object")
	if err != nil {
		return nil, err
	}
	if err := c.checkError(status, body); err != nil {
		c.logger.WarnWithFields("object request failed", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		return nil, err
	}

	var record Record
	if err := decode(body, &record); err != nil {
		return nil, c.parseError(endpoint, status, body, err)
	}
	return record, nil
}

// FetchConnection fetches the first page of the edge of id. params are
// merged over the fields param.
func (c *Client) FetchConnection(ctx context.Context, id, edge, fields string, params url.Values) (*Connection, error) {
	query := FieldParams(fields)
	for k, vs := range params {
		query[k] = vs
	}
	endpoint := buildURL(c.baseURL, c.version, []string{id, edge}, query)

	status, body, err := c.get(ctx, endpoint, edge)
	if err != nil {
		return nil, err
	}
	if err := c.checkError(status, body); err != nil {
		c.logger.WarnWithFields("connection request failed", map[string]interface{}{
			"id":    id,
			"edge":  edge,
			"error": err.Error(),
		})
		return nil, err
	}

	conn, err := c.decodeConnection(endpoint, status, body)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// FetchNextPage follows the next link of conn. An error object in the
// response body is returned in-band on the Connection, not as err.
func (c *Client) FetchNextPage(ctx context.Context, conn *Connection) (*Connection, error) {
	if !conn.HasNext() {
		return nil, ErrNoNextPage
	}

	status, body, err := c.get(ctx, conn.Paging.Next, "next_page")
	if err != nil {
		return nil, err
	}

	next, err := c.decodeConnection(conn.Paging.Next, status, body)
	if err != nil {
		return nil, err
	}
	if next.Error == nil && status != http.StatusOK {
		return nil, errs.FromStatus(status, fmt.Sprintf("unexpected status %d", status))
	}
	return next, nil
}

// get performs a paced GET and returns the status and full body
func (c *Client) get(ctx context.Context, rawURL, endpoint string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
			"duration": duration,
		})
		return 0, nil, errs.Wrap(errs.ErrorTypeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to read response body", err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.Path, resp.StatusCode, duration)
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, resp.StatusCode, duration)
	}

	return resp.StatusCode, body, nil
}

// checkError maps an error body or a non-200 status to a typed error
func (c *Client) checkError(status int, body []byte) error {
	var env errorEnvelope
	if err := decode(body, &env); err == nil && env.Error != nil {
		return env.Error.Err(status)
	}
	if status != http.StatusOK {
		return errs.FromStatus(status, fmt.Sprintf("unexpected status %d", status))
	}
	return nil
}

func (c *Client) decodeConnection(endpoint string, status int, body []byte) (*Connection, error) {
	var conn Connection
	if err := decode(body, &conn); err != nil {
		return nil, c.parseError(endpoint, status, body, err)
	}
	if conn.Error == nil && conn.Data == nil {
		return nil, c.parseError(endpoint, status, body, fmt.Errorf("response has no data key"))
	}
	conn.status = status
	return &conn, nil
}

func (c *Client) parseError(endpoint string, status int, body []byte, err error) error {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	u, _ := url.Parse(endpoint)
	path := endpoint
	if u != nil {
		path = u.Path
	}
	c.logger.ErrorWithFields("failed to parse Graph response", map[string]interface{}{
		"path":         path,
		"status":       status,
		"error":        err.Error(),
		"body_preview": preview,
	})
	return &errs.Error{
		Type:       errs.ErrorTypeParsing,
		Message:    "malformed response",
		StatusCode: status,
		Err:        err,
	}
}

// decode unmarshals body keeping numbers as json.Number
func decode(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}
