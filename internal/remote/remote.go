// Package remote is an HTTP client for a focusring API server. It
// satisfies the same block store contract as the local backends.
package remote

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

	"github.com/google/uuid"

	"github.com/sadopc/focusring/internal/api"
	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/errs"
	"github.com/sadopc/focusring/internal/suggest"
	"github.com/sadopc/focusring/internal/summary"
)

// DefaultTimeout bounds each request when no client is supplied.
const DefaultTimeout = 10 * time.Second

// Client talks to the API rooted at BaseURL, e.g. http://host:8080/api.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New validates baseURL and returns a client.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errs.Errorf("new remote client", errs.InvalidArgument, "invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends one request and decodes a 2xx JSON body into out. There are
// no retries.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return errs.E(op, errs.InvalidArgument, err)
	}
	id := uuid.NewString()
	req.Header.Set(api.RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed",
			slog.String("op", op),
			slog.String("request_id", id),
			slog.String("error", err.Error()))
		return errs.E(op, errs.Unavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.E(op, errs.Unavailable, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	var e struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	code := errs.Unavailable
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = errs.InvalidArgument
	case http.StatusNotFound:
		code = errs.NotFound
	case http.StatusConflict:
		code = errs.Conflict
	}
	return errs.Errorf(op, code, "status %d: %s", resp.StatusCode, msg)
}

func (c *Client) GetDay(ctx context.Context, date string) (day.Snapshot, error) {
	if _, err := day.ParseDate(date); err != nil {
		return day.Snapshot{}, err
	}
	var blocks []day.Block
	if err := c.do(ctx, "get day", http.MethodGet, "/day/"+url.PathEscape(date), nil, &blocks); err != nil {
		return day.Snapshot{}, err
	}
	snap, err := day.NewSnapshot(date, blocks)
	if err != nil {
		return day.Snapshot{}, errs.E("get day", errs.Unavailable, err)
	}
	return snap, nil
}

// GetRange fetches each day in turn.
func (c *Client) GetRange(ctx context.Context, from, to string) ([]day.Snapshot, error) {
	dates, err := day.DateRange(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]day.Snapshot, 0, len(dates))
	for _, d := range dates {
		snap, err := c.GetDay(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// GetBlock fetches the whole day and returns one slot of it.
func (c *Client) GetBlock(ctx context.Context, date string, slot int) (day.Block, error) {
	if err := day.ValidateSlot(slot); err != nil {
		return day.Block{}, err
	}
	snap, err := c.GetDay(ctx, date)
	if err != nil {
		return day.Block{}, err
	}
	return snap.Block(slot)
}

func (c *Client) SetBlock(ctx context.Context, date string, slot int, u day.Update) error {
	if _, err := day.ParseDate(date); err != nil {
		return err
	}
	if err := day.ValidateSlot(slot); err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}
	return c.do(ctx, "set block", http.MethodPost, "/block", api.BlockRequest{Date: date, Slot: slot, Update: u}, nil)
}

// SetBlocks writes many blocks in one request. The server skips entries
// it considers invalid, so Processed may be lower than Requested.
func (c *Client) SetBlocks(ctx context.Context, blocks []api.BlockRequest) (api.BulkResponse, error) {
	if len(blocks) == 0 {
		return api.BulkResponse{}, errs.Errorf("set blocks", errs.InvalidArgument, "no blocks given")
	}
	var r api.BulkResponse
	err := c.do(ctx, "set blocks", http.MethodPost, "/bulk", api.BulkRequest{Blocks: blocks}, &r)
	return r, err
}

func (c *Client) Catalog(ctx context.Context) (catalog.Catalog, error) {
	var list []catalog.Category
	if err := c.do(ctx, "list categories", http.MethodGet, "/categories", nil, &list); err != nil {
		return catalog.Catalog{}, err
	}
	cat, err := catalog.New(list)
	if err != nil {
		return catalog.Catalog{}, errs.E("list categories", errs.Unavailable, err)
	}
	return cat, nil
}

// Summary returns the server-computed summary of date.
func (c *Client) Summary(ctx context.Context, date string) (summary.Daily, error) {
	var d summary.Daily
	err := c.do(ctx, "get summary", http.MethodGet, "/summary/"+url.PathEscape(date), nil, &d)
	return d, err
}

func (c *Client) Trend(ctx context.Context, from, to string) (summary.TrendReport, error) {
	q := url.Values{"from": {from}, "to": {to}}
	var r summary.TrendReport
	err := c.do(ctx, "get trend", http.MethodGet, "/trend?"+q.Encode(), nil, &r)
	return r, err
}

func (c *Client) Suggestions(ctx context.Context, date string) (suggest.Advice, error) {
	var a suggest.Advice
	err := c.do(ctx, "get suggestions", http.MethodGet, "/suggestions/"+url.PathEscape(date), nil, &a)
	return a, err
}

// Stats returns what the server's database holds.
func (c *Client) Stats(ctx context.Context) (api.StatsResponse, error) {
	var r api.StatsResponse
	err := c.do(ctx, "get stats", http.MethodGet, "/stats", nil, &r)
	return r, err
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/health", nil, nil)
}
