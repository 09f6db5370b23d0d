// Package tradervue implements a client for the Tradervue REST API
// (https://www.tradervue.com/api), covering the read operations a backup
// needs: journal entries, notes, trades, and per-trade executions and
// comments.
package tradervue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// DefaultBaseURL is the production Tradervue server.
const DefaultBaseURL = "https://www.tradervue.com"

// pageSize is the maximum page size the API accepts on list endpoints.
const pageSize = 100

// TradeSummary is the listing-level trade record. Only the identifier is
// interpreted; everything else about a trade comes from the detail fetch.
type TradeSummary struct {
	ID int64 `json:"id"`
}

// TradeDetail is the full record for a single trade. Fields are kept opaque
// so the backup preserves whatever the server returns; only the enrichment
// counts are ever read.
type TradeDetail map[string]any

// ExecCount reports how many executions the server holds for this trade.
func (d TradeDetail) ExecCount() int { return d.count("exec_count") }

// CommentCount reports how many comments the server holds for this trade.
func (d TradeDetail) CommentCount() int { return d.count("comment_count") }

func (d TradeDetail) count(key string) int {
	switch v := d[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case int:
		return v
	}
	return 0
}

// Config carries the client construction options.
type Config struct {
	BaseURL    string        // defaults to DefaultBaseURL
	UserAgent  string        // required by the Tradervue API terms
	TargetUser string        // optional Tradervue-UserId header value
	Timeout    time.Duration // per-request timeout
	DebugHTTP  bool          // dump requests/responses at DEBUG
}

// Client is a Tradervue API client. All calls block until response or error;
// timeouts are the transport's business, not the caller's.
type Client struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	targetUser string
	debugHTTP  bool
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a Tradervue API client authenticating with HTTP basic
// auth.
func NewClient(username, password string, cfg Config, log *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		username:   username,
		password:   password,
		userAgent:  cfg.UserAgent,
		targetUser: cfg.TargetUser,
		debugHTTP:  cfg.DebugHTTP,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Journals fetches every journal entry, exhausting pagination, in server
// order.
func (c *Client) Journals(ctx context.Context) ([]json.RawMessage, error) {
	return c.listAll(ctx, "journal", "journal_entries")
}

// Notes fetches every note, exhausting pagination, in server order.
func (c *Client) Notes(ctx context.Context) ([]json.RawMessage, error) {
	return c.listAll(ctx, "notes", "notes")
}

// Trades fetches every trade summary, exhausting pagination, in server order.
func (c *Client) Trades(ctx context.Context) ([]TradeSummary, error) {
	raws, err := c.listAll(ctx, "trades", "trades")
	if err != nil {
		return nil, err
	}

	summaries := make([]TradeSummary, 0, len(raws))
	for _, raw := range raws {
		var s TradeSummary
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode trade summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Trade fetches the full record for one trade. A server-side failure (not
// found, permission, 5xx) yields None; only transport or decoding problems
// are reported as errors.
func (c *Client) Trade(ctx context.Context, id int64) (optional.Option[TradeDetail], error) {
	var detail TradeDetail
	ok, err := c.getJSON(ctx, c.url("trades", strconv.FormatInt(id, 10)), &detail)
	if err != nil {
		return optional.None[TradeDetail](), err
	}
	if !ok {
		return optional.None[TradeDetail](), nil
	}
	return optional.Some(detail), nil
}

// TradeExecutions fetches the executions recorded for one trade.
func (c *Client) TradeExecutions(ctx context.Context, id int64) (optional.Option[[]json.RawMessage], error) {
	return c.getSubRecords(ctx, id, "executions")
}

// TradeComments fetches the comments recorded for one trade.
func (c *Client) TradeComments(ctx context.Context, id int64) (optional.Option[[]json.RawMessage], error) {
	return c.getSubRecords(ctx, id, "comments")
}

// getSubRecords handles the trades/{id}/{kind} endpoints, whose responses
// wrap the records under a key named after the endpoint.
func (c *Client) getSubRecords(ctx context.Context, id int64, kind string) (optional.Option[[]json.RawMessage], error) {
	var envelope map[string]json.RawMessage
	ok, err := c.getJSON(ctx, c.url("trades", strconv.FormatInt(id, 10), kind), &envelope)
	if err != nil {
		return optional.None[[]json.RawMessage](), err
	}
	if !ok {
		return optional.None[[]json.RawMessage](), nil
	}

	raw, found := envelope[kind]
	if !found {
		c.log.Debug("response envelope missing expected key",
			zap.String("key", kind),
			zap.Int64("trade_id", id))
		return optional.None[[]json.RawMessage](), nil
	}

	records := []json.RawMessage{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return optional.None[[]json.RawMessage](), fmt.Errorf("decode %s for trade %d: %w", kind, id, err)
	}

	c.log.Debug("fetched trade sub-records",
		zap.String("kind", kind),
		zap.Int64("trade_id", id),
		zap.Int("count", len(records)))
	return optional.Some(records), nil
}

// listAll walks a paginated list endpoint until a short page, returning the
// complete ordered sequence. Any failure at this level is an error: the
// backup cannot be meaningfully partial in a whole collection.
func (c *Client) listAll(ctx context.Context, path, key string) ([]json.RawMessage, error) {
	all := []json.RawMessage{}
	for page := 1; ; page++ {
		batch, err := c.listPage(ctx, path, key, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, path, key string, page int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("count", strconv.Itoa(pageSize))

	resp, err := c.do(ctx, c.url(path)+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list %s page %d: %s", path, page, serverError(resp.StatusCode, body))
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}

	raw, found := envelope[key]
	if !found {
		return nil, fmt.Errorf("no %q field in %s response", key, path)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %q field in %s response: %w", key, path, err)
	}

	c.log.Debug("fetched list page",
		zap.String("path", path),
		zap.Int("page", page),
		zap.Int("count", len(records)))
	return records, nil
}

// getJSON performs a GET and decodes a 200 response into v. Non-2xx statuses
// report ok=false with the server's complaint logged at DEBUG; the caller
// decides whether absence matters.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) (bool, error) {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Debug("tradervue api error",
			zap.String("url", rawURL),
			zap.String("error", serverError(resp.StatusCode, body)))
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return true, nil
}

func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.targetUser != "" {
		req.Header.Set("Tradervue-UserId", c.targetUser)
	}

	if c.debugHTTP {
		if dump, err := httputil.DumpRequestOut(req, false); err == nil {
			c.log.Debug("http request", zap.ByteString("dump", dump))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if c.debugHTTP {
		if dump, err := httputil.DumpResponse(resp, true); err == nil {
			c.log.Debug("http response", zap.ByteString("dump", dump))
		}
	}

	return resp, nil
}

func (c *Client) url(parts ...string) string {
	return strings.Join(append([]string{c.baseURL}, parts...), "/")
}

// serverError extracts the API's error message from a failure body. The API
// reports under "error" or "status" depending on the endpoint; anything else
// is passed through raw.
func serverError(status int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	var jdata map[string]any
	if err := json.Unmarshal(body, &jdata); err == nil {
		if s, ok := jdata["error"].(string); ok {
			msg = s
		} else if s, ok := jdata["status"].(string); ok {
			msg = s
		}
	}
	if msg == "" {
		return fmt.Sprintf("HTTP status %d", status)
	}
	return fmt.Sprintf("HTTP status %d: %s", status, msg)
}
