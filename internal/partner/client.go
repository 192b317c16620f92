// Package partner reads app subscription sales from the partner GraphQL API.
package partner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"appsales/internal/core"
	"appsales/internal/log"
)

const (
	// PageSize is the API's per-request ceiling, fixed in the query.
	PageSize = 100

	AccessTokenHeader = "X-Shopify-Access-Token"
)

var (
	// ErrFetch covers transport errors, non-2xx responses and bodies that do
	// not match the expected page shape.
	ErrFetch = errors.New("fetch transactions")
	// ErrContractViolation is returned when a page claims more results but
	// carries no records, leaving no cursor to continue from.
	ErrContractViolation = errors.New("page declares more results but has no records")
)

// Config is the explicit parameter bundle for a Client.
type Config struct {
	Endpoint    string
	AccessToken string
	Timeout     time.Duration
}

type Client struct {
	http     *resty.Client
	endpoint string
	logger   *log.Logger
}

func New(cfg Config, logger *log.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("missing partner API endpoint")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid partner API endpoint: %w", err)
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("missing partner API access token")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader(AccessTokenHeader, cfg.AccessToken)

	return &Client{
		http:     httpClient,
		endpoint: endpoint,
		logger:   logger.WithComponent(log.ComponentPartner),
	}, nil
}

// FetchAll returns every record created inside r, following the cursor chain
// page by page until the API reports no further pages. Pages are requested
// strictly in sequence. Any failure discards what was accumulated.
func (c *Client) FetchAll(ctx context.Context, r core.Range) ([]core.Record, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	records := make([]core.Record, 0, PageSize)
	cursor := ""

	for n := 1; ; n++ {
		p, err := c.fetchPage(ctx, cursor, r)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		records = append(records, p.records()...)

		c.logger.DebugContext(ctx, "Fetched transactions page",
			log.FieldPage, n,
			log.FieldCursor, cursor,
			log.FieldEdges, len(p.Edges),
			"has_next_page", p.PageInfo.HasNextPage)

		if !p.PageInfo.HasNextPage {
			c.logger.InfoContext(ctx, "Fetched all transactions",
				"pages", n,
				log.FieldCount, len(records),
				log.FieldDuration, time.Since(start).Milliseconds())
			return records, nil
		}

		next, err := p.nextCursor()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		if next == cursor {
			return nil, fmt.Errorf("page %d: %w: cursor %q did not advance", n, ErrContractViolation, cursor)
		}
		cursor = next
	}
}

func (c *Client) fetchPage(ctx context.Context, cursor string, r core.Range) (*page, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(newRequestBody(cursor, r)).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", ErrFetch, err)
	}

	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		c.logger.WarnContext(ctx, "Partner API returned non-success status",
			log.FieldStatusCode, res.StatusCode(),
			log.FieldCursor, cursor)
		return nil, fmt.Errorf("%w: unexpected status %s", ErrFetch, res.Status())
	}

	var body response
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrFetch, err)
	}
	if len(body.Errors) > 0 {
		msgs := make([]string, 0, len(body.Errors))
		for _, e := range body.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("%w: graphql errors: %s", ErrFetch, strings.Join(msgs, "; "))
	}
	if body.Data == nil || body.Data.Transactions == nil {
		return nil, fmt.Errorf("%w: response has no transactions", ErrFetch)
	}

	return body.Data.Transactions, nil
}

func (p *page) records() []core.Record {
	out := make([]core.Record, 0, len(p.Edges))
	for _, e := range p.Edges {
		out = append(out, e.record())
	}
	return out
}
