// Package tiktokads provides a minimal client for the TikTok Creative
// Center top-ads API, used to gather reference creatives for TikTok.
package tiktokads

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/adlens/creative-intel/internal/resilience"
)

const defaultBaseURL = "https://business-api.tiktok.com/creative_radar_api/v1.0"

// Client searches TikTok Creative Center top ads.
type Client interface {
	SearchTopAds(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest describes one top-ads query.
type SearchRequest struct {
	IndustryKeyword string `json:"keyword"`
	Limit           int    `json:"limit"`
}

// SearchResponse is the decoded top-ads payload.
type SearchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Materials []Material `json:"materials"`
	} `json:"data"`
}

// Material is one top ad creative.
type Material struct {
	ID           string  `json:"id"`
	BrandName    string  `json:"brand_name"`
	CoverURL     string  `json:"cover_url"`
	LikeCount    int64   `json:"like"`
	CTR          float64 `json:"ctr"`
	DurationDays int     `json:"duration_days"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
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

// NewClient creates a TikTok Creative Center client.
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

func (c *httpClient) SearchTopAds(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "tiktokads: marshal request")
	}

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*SearchResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "tiktokads: rate limiter")
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/top_ads/search", bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "tiktokads: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Access-Token", c.accessToken)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, eris.Wrap(err, "tiktokads: search top ads")
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "tiktokads: read response")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("tiktokads: search returned status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		var out SearchResponse
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, eris.Wrap(err, "tiktokads: decode response")
		}
		if out.Code != 0 {
			return nil, eris.Errorf("tiktokads: API error code %d: %s", out.Code, out.Message)
		}
		return &out, nil
	})
}
