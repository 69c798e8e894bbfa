package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
)

var tracer = otel.Tracer("internal/source")

// Record is one row of the external table. Fields stays raw so the mapper can
// look values up without committing to a schema.
type Record struct {
	ID          string          `json:"id"`
	CreatedTime string          `json:"createdTime,omitempty"`
	Fields      json.RawMessage `json:"fields"`
}

// Page is one response of the list endpoint. An empty NextCursor marks the last page.
type Page struct {
	Records    []Record
	NextCursor string
}

// Lister fetches pages of records following an opaque cursor.
type Lister interface {
	ListPage(ctx context.Context, cursor string) (Page, error)
}

// StatusError is returned when the source answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source responded with status %d: %s", e.StatusCode, e.Body)
}

var _ Lister = (*Client)(nil)

// Client talks to a base/table REST API of the Airtable family:
// GET {base}/v0/{baseID}/{table}?pageSize=N&offset=cursor with a bearer token.
type Client struct {
	endpoint   string
	token      string
	view       string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(cfg config.Source, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		endpoint: fmt.Sprintf("%s/v0/%s/%s",
			strings.TrimRight(cfg.BaseURL, "/"),
			url.PathEscape(cfg.BaseID),
			url.PathEscape(cfg.Table),
		),
		token:      cfg.Token,
		view:       cfg.View,
		pageSize:   cfg.EffectivePageSize(),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

func (c *Client) ListPage(ctx context.Context, cursor string) (Page, error) {
	ctx, span := tracer.Start(ctx, "Client.ListPage", trace.WithAttributes(
		attribute.Bool("source.has_cursor", cursor != ""),
	))
	defer span.End()

	page, err := c.listPage(ctx, cursor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list page failed")
		return Page{}, err
	}

	span.SetAttributes(attribute.Int("source.records", len(page.Records)))
	return page, nil
}

func (c *Client) listPage(ctx context.Context, cursor string) (Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("offset", cursor)
	}
	if c.view != "" {
		q.Set("view", c.view)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var res listResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Page{}, fmt.Errorf("decode response: %w", err)
	}

	return Page{
		Records:    res.Records,
		NextCursor: res.Offset,
	}, nil
}
