// Package thingworx is a small client for the platform's REST surface:
// mashup upsert/delete/fetch, thing template listing, and thing creation.
package thingworx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mashupctl/internal/mashup"
)

// DefaultReason is the change reason attached to mashup upserts.
const DefaultReason = "created by Antigravity"

// DefaultTimeout bounds each request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 64 << 10

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithReason sets the reason sent with mashup upserts.
func WithReason(reason string) Option {
	return func(c *Client) {
		c.reason = reason
	}
}

// Client talks to one platform instance.
type Client struct {
	baseURL string
	appKey  string
	reason  string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the instance at baseURL (for example
// "http://host:8080/Thingworx") authenticating with appKey.
func New(baseURL, appKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appKey:  appKey,
		reason:  DefaultReason,
		timeout: DefaultTimeout,
		http:    http.DefaultClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "thingworx")
	return c
}

// BaseURL returns the instance base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// MashupURL returns the URL a mashup can be viewed at.
func (c *Client) MashupURL(name string) string {
	return c.baseURL + "/Mashups/" + url.PathEscape(name)
}

// PutMashup creates or fully replaces a mashup.
func (c *Client) PutMashup(ctx context.Context, e *mashup.Entity) error {
	q := url.Values{}
	q.Set("Content-Type", "application/json")
	q.Set("reason", c.reason)
	// The platform expects %20 rather than '+' for spaces in the reason.
	path := "/Mashups?" + strings.ReplaceAll(q.Encode(), "+", "%20")
	return c.do(ctx, http.MethodPut, path, e, nil)
}

// DeleteMashup removes a mashup.
func (c *Client) DeleteMashup(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/Mashups/"+url.PathEscape(name), nil, nil)
}

// MashupDocument is a fetched mashup entity. Content is the decoded
// mashupContent string; RawContent keeps the string as received.
type MashupDocument struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ProjectName string          `json:"projectName"`
	RawContent  string          `json:"mashupContent"`
	Content     mashup.Content  `json:"-"`
	Raw         json.RawMessage `json:"-"`
}

// GetMashup fetches a mashup and decodes its content.
func (c *Client) GetMashup(ctx context.Context, name string) (*MashupDocument, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/Mashups/"+url.PathEscape(name), nil, &raw); err != nil {
		return nil, err
	}
	var doc MashupDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode mashup %s: %w", name, err)
	}
	content, err := mashup.DecodeContent(doc.RawContent)
	if err != nil {
		return nil, fmt.Errorf("mashup %s: %w", name, err)
	}
	doc.Content = content
	doc.Raw = raw
	return &doc, nil
}

// TemplateRow is one row of the ThingTemplates listing.
type TemplateRow struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListThingTemplates returns every thing template.
func (c *Client) ListThingTemplates(ctx context.Context) ([]TemplateRow, error) {
	var out struct {
		Rows []TemplateRow `json:"rows"`
	}
	if err := c.do(ctx, http.MethodGet, "/ThingTemplates", nil, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

// CreateThing creates a thing from a template.
func (c *Client) CreateThing(ctx context.Context, req mashup.ThingRequest) error {
	return c.do(ctx, http.MethodPost, "/Resources/EntityServices/Services/CreateThing", req, nil)
}

// EnableThing enables a thing.
func (c *Client) EnableThing(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/Things/"+url.PathEscape(name)+"/Services/EnableThing", nil, nil)
}

// do sends one request. body, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded JSON response. Non-2xx responses come back
// as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("appKey", c.appKey)
	req.Header.Set("Accept", "application/json")
	if body != nil || method == http.MethodDelete {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:     method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Status:     reasonPhrase(resp),
			Body:       string(text),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, u, err)
	}
	return nil
}

// reasonPhrase returns the status text the server sent, falling back to the
// standard text for the code.
func reasonPhrase(resp *http.Response) string {
	if _, phrase, ok := strings.Cut(resp.Status, " "); ok && phrase != "" {
		return phrase
	}
	return http.StatusText(resp.StatusCode)
}
