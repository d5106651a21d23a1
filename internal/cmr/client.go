// Package cmr implements a client for NASA's Common Metadata Repository
// granule search interface.
package cmr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultBaseURL is the production CMR search endpoint.
	DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search"

	// DefaultPageSize is the largest page CMR allows.
	DefaultPageSize = 2000

	// DefaultMaxAttempts bounds retries per request.
	DefaultMaxAttempts = 3

	// DefaultRequestInterval is the politeness delay between paginated
	// requests against the archive.
	DefaultRequestInterval = 50 * time.Millisecond

	// DefaultTimeout bounds one HTTP request against the archive.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "granulewatch/1.0"

	granulesPath = "/granules.umm_json"

	hitsHeader        = "CMR-Hits"
	searchAfterHeader = "CMR-Search-After"

	maxErrorBodyBytes = 4096
)

// ErrGranuleNotFound is returned by GranuleByUR when the archive has no
// record for the requested granule UR.
var ErrGranuleNotFound = errors.New("granule not found in archive")

// ErrStatus indicates a non-success HTTP status from the archive.
var ErrStatus = errors.New("archive returned error status")

// Config holds the client knobs. Zero values fall back to defaults.
type Config struct {
	BaseURL         string
	PageSize        int
	MaxAttempts     int
	RequestInterval time.Duration
	Timeout         time.Duration
	UserAgent       string
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}

	if c.RequestInterval <= 0 {
		c.RequestInterval = DefaultRequestInterval
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Client queries the CMR granule search interface with bounded retries
// and CMR-Search-After pagination.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates a Client.
func New(cfg Config) *Client {
	cfg.defaults()

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
	}
}

type searchResponse struct {
	Items []Granule `json:"items"`
}

// SearchGranules returns every granule matching the query, following
// CMR-Search-After pagination until the result set is exhausted.
func (c *Client) SearchGranules(ctx context.Context, query Query) ([]Granule, error) {
	params := c.queryParams(query)

	var (
		granules    []Granule
		searchAfter string
	)

	for {
		page, nextSearchAfter, err := c.fetchPage(ctx, params, searchAfter)
		if err != nil {
			return nil, err
		}

		granules = append(granules, page...)

		if nextSearchAfter == "" || len(page) == 0 {
			return granules, nil
		}

		searchAfter = nextSearchAfter

		err = c.pause(ctx)
		if err != nil {
			return nil, err
		}
	}
}

// Hits returns the total number of granules matching the query without
// transferring the granule records themselves.
func (c *Client) Hits(ctx context.Context, query Query) (int, error) {
	params := c.queryParams(query)
	params.Set("page_size", "0")

	resp, err := c.get(ctx, params, "")
	if err != nil {
		return 0, err
	}
	defer drainAndClose(resp.Body)

	hits, err := strconv.Atoi(resp.Header.Get(hitsHeader))
	if err != nil {
		return 0, fmt.Errorf("parse %s header: %w", hitsHeader, err)
	}

	return hits, nil
}

// GranuleByUR fetches the single granule with the given UR from a
// collection.
func (c *Client) GranuleByUR(ctx context.Context, shortName, granuleUR string) (*Granule, error) {
	granules, err := c.SearchGranules(ctx, Query{ShortName: shortName, GranuleUR: granuleUR})
	if err != nil {
		return nil, err
	}

	if len(granules) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrGranuleNotFound, granuleUR, shortName)
	}

	return &granules[0], nil
}

func (c *Client) fetchPage(ctx context.Context, params url.Values, searchAfter string) ([]Granule, string, error) {
	resp, err := c.get(ctx, params, searchAfter)
	if err != nil {
		return nil, "", err
	}
	defer drainAndClose(resp.Body)

	var payload searchResponse

	err = json.NewDecoder(resp.Body).Decode(&payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode archive response: %w", err)
	}

	return payload.Items, resp.Header.Get(searchAfterHeader), nil
}

// get issues one GET with retry/backoff. Transport failures and
// 5xx/429 statuses are retried; other statuses fail immediately.
func (c *Client) get(ctx context.Context, params url.Values, searchAfter string) (*http.Response, error) {
	endpoint := c.config.BaseURL + granulesPath + "?" + params.Encode()

	operation := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("new request: %w", err))
		}

		req.Header.Set("User-Agent", c.config.UserAgent)

		if searchAfter != "" {
			req.Header.Set(searchAfterHeader, searchAfter)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("archive request: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		drainAndClose(resp.Body)

		statusErr := fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, string(body))

		if retryable(resp.StatusCode) {
			return nil, statusErr
		}

		return nil, backoff.Permanent(statusErr)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.config.MaxAttempts)),
	)
}

func (c *Client) queryParams(query Query) url.Values {
	params := url.Values{}
	params.Set("page_size", strconv.Itoa(c.config.PageSize))

	if query.ConceptID != "" {
		params.Set("collection_concept_id", query.ConceptID)
	}

	if query.ShortName != "" {
		params.Set("short_name", query.ShortName)
	}

	if query.GranuleUR != "" {
		params.Set("granule_ur", query.GranuleUR)
	}

	if !query.TemporalFrom.IsZero() && !query.TemporalTo.IsZero() {
		params.Set("temporal", timeRange(query.TemporalFrom, query.TemporalTo))
	}

	if !query.RevisionFrom.IsZero() && !query.RevisionTo.IsZero() {
		params.Set("revision_date", timeRange(query.RevisionFrom, query.RevisionTo))
	}

	sortKeys := query.SortKeys
	if len(sortKeys) == 0 {
		sortKeys = []string{"provider", "start_date", "producer_granule_id"}
	}

	for _, key := range sortKeys {
		params.Add("sort_key[]", key)
	}

	return params
}

// pause sleeps for the configured request interval, honoring cancellation.
func (c *Client) pause(ctx context.Context) error {
	timer := time.NewTimer(c.config.RequestInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryable(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

func timeRange(from, to time.Time) string {
	const layout = "2006-01-02T15:04:05Z"

	return from.UTC().Format(layout) + "," + to.UTC().Format(layout)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
