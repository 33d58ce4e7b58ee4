// Package source talks to the HTTP/JSON bridge in front of the remote ledger system.
// Every outbound request goes through one rate limiter, so retries also respect the
// minimum interval the remote system needs between calls.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/voucher-sync-ledger/internal/config"
	"github.com/voucher-sync-ledger/internal/domain/master"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

const (
	apiKeyHeader = "X-API-Key"
	maxErrorBody = 512
)

// Client fetches vouchers and masters from the bridge
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries uint64
	retryBase  time.Duration
	limiter    *rate.Limiter
	http       *http.Client
	logger     *slog.Logger
}

// NewClient builds a client from the source configuration
func NewClient(logger *slog.Logger, cfg *config.SourceConfig) *Client {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		maxRetries: uint64(cfg.MaxRetries),
		retryBase:  cfg.RetryBaseDelay,
		limiter:    rate.NewLimiter(limit, 1),
		http:       &http.Client{},
		logger:     logger.With("component", "source_client"),
	}
}

// FetchVouchersSince returns vouchers whose change counter is above since
func (c *Client) FetchVouchersSince(ctx context.Context, since int64, types []voucher.Type) ([]*voucher.Record, error) {
	params := url.Values{}
	params.Set("since_counter", strconv.FormatInt(since, 10))
	return c.fetchVouchers(ctx, "fetch_vouchers_since", params, types)
}

// FetchVouchersInRange returns vouchers dated within [from, to]
func (c *Client) FetchVouchersInRange(ctx context.Context, from, to time.Time, types []voucher.Type) ([]*voucher.Record, error) {
	params := url.Values{}
	params.Set("from", from.Format(dateLayout))
	params.Set("to", to.Format(dateLayout))
	return c.fetchVouchers(ctx, "fetch_vouchers_in_range", params, types)
}

// FetchItemsSince returns stock items changed after since
func (c *Client) FetchItemsSince(ctx context.Context, since int64) ([]*master.Item, error) {
	var resp listResponse[itemDTO]
	if err := c.get(ctx, "fetch_items_since", "/masters/items", sinceParams(since), &resp); err != nil {
		return nil, err
	}

	items := make([]*master.Item, 0, len(resp.Data))
	for _, d := range resp.Data {
		item := d.toItem()
		if item.Name == "" {
			c.logger.Warn("Dropping stock item without name", "change_counter", d.ChangeCounter)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// FetchPartiesSince returns parties changed after since
func (c *Client) FetchPartiesSince(ctx context.Context, since int64) ([]*master.Party, error) {
	var resp listResponse[partyDTO]
	if err := c.get(ctx, "fetch_parties_since", "/masters/parties", sinceParams(since), &resp); err != nil {
		return nil, err
	}

	parties := make([]*master.Party, 0, len(resp.Data))
	for _, d := range resp.Data {
		party := d.toParty()
		if party.Name == "" {
			c.logger.Warn("Dropping party without name", "change_counter", d.ChangeCounter)
			continue
		}
		parties = append(parties, party)
	}
	return parties, nil
}

func (c *Client) fetchVouchers(ctx context.Context, op string, params url.Values, types []voucher.Type) ([]*voucher.Record, error) {
	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		params.Set("types", strings.Join(names, ","))
	}
	params.Set("exclude_cancelled", "true")

	var resp listResponse[voucherDTO]
	if err := c.get(ctx, op, "/vouchers", params, &resp); err != nil {
		return nil, err
	}

	records := make([]*voucher.Record, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.skip() {
			continue
		}
		record, err := d.toRecord()
		if err != nil {
			c.logger.Warn("Dropping malformed voucher",
				"external_id", d.ExternalID,
				"change_counter", d.ChangeCounter,
				"error", err,
			)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// get performs one GET with rate limiting, a per-attempt timeout and exponential
// backoff on transport errors and 5xx answers.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	attempt := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.do(ctx, endpoint)
		if err != nil {
			var rejected ErrRequestRejected
			if errors.As(err, &rejected) {
				return err
			}
			c.logger.Warn("Source request failed", "op", op, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var rejected ErrRequestRejected
	if errors.As(err, &rejected) {
		c.logger.Error("Source rejected request", "op", op, "status", rejected.StatusCode)
		return err
	}
	c.logger.Error("Source unavailable", "op", op, "attempts", attempt, "error", err)
	return ErrSourceUnavailable{Op: op, Err: err}
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("source returned status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, ErrRequestRejected{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected source status %d", resp.StatusCode)
	}

	return body, nil
}

func sinceParams(since int64) url.Values {
	params := url.Values{}
	params.Set("since_counter", strconv.FormatInt(since, 10))
	return params
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
