// Package metaads provides a minimal client for the Meta Ad Library API,
// covering the ads_archive search used to gather reference creatives for
// Instagram, Threads and Facebook.
package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/adlens/creative-intel/internal/resilience"
)

const defaultBaseURL = "https://graph.facebook.com/v21.0"

// Client searches the Meta Ad Library.
type Client interface {
	SearchAds(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest describes one ads_archive query.
type SearchRequest struct {
	// SearchTerms is matched against ad text; we use the industry keyword.
	SearchTerms string
	// Publisher selects the surface: "INSTAGRAM", "THREADS" or "FACEBOOK".
	Publisher string
	Limit     int
}

// SearchResponse is the decoded ads_archive page.
type SearchResponse struct {
	Data []AdRecord `json:"data"`
}

// AdRecord is one archived ad as returned by the API.
type AdRecord struct {
	ID              string `json:"id"`
	PageName        string `json:"page_name"`
	AdSnapshotURL   string `json:"ad_snapshot_url"`
	AdDeliveryStart string `json:"ad_delivery_start_time"`
	AdDeliveryStop  string `json:"ad_delivery_stop_time"`
	EUTotalReach    int64  `json:"eu_total_reach,omitempty"`
}

// DeliveryDays computes how long the ad ran, using now for still-running ads.
// Returns 0 if the start time is missing or malformed.
func (r AdRecord) DeliveryDays(now time.Time) int {
	start, err := time.Parse("2006-01-02", r.AdDeliveryStart)
	if err != nil {
		return 0
	}
	stop := now
	if r.AdDeliveryStop != "" {
		if t, err := time.Parse("2006-01-02", r.AdDeliveryStop); err == nil {
			stop = t
		}
	}
	days := int(stop.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default Graph API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(qps int) Option {
	return func(c *httpClient) {
		if qps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(qps), qps)
		}
	}
}

type httpClient struct {
	accessToken string
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	retry       resilience.RetryConfig
}

// NewClient creates a Meta Ad Library client.
func NewClient(accessToken string, opts ...Option) Client {
	c := &httpClient{
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchAds(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}

	q := url.Values{}
	q.Set("search_terms", req.SearchTerms)
	q.Set("ad_reached_countries", `["US"]`)
	q.Set("ad_active_status", "ALL")
	q.Set("publisher_platforms", fmt.Sprintf("[%q]", req.Publisher))
	q.Set("fields", "id,page_name,ad_snapshot_url,ad_delivery_start_time,ad_delivery_stop_time,eu_total_reach")
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("access_token", c.accessToken)

	endpoint := c.baseURL + "/ads_archive?" + q.Encode()

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*SearchResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "metaads: rate limiter")
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "metaads: create request")
		}

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, eris.Wrap(err, "metaads: search ads")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "metaads: read response")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("metaads: search returned status %d: %s", resp.StatusCode, truncate(body, 200))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		var out SearchResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, eris.Wrap(err, "metaads: decode response")
		}
		return &out, nil
	})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
