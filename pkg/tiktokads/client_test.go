package tiktokads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastenRetry(t *testing.T, c Client) {
	t.Helper()
	hc, ok := c.(*httpClient)
	require.True(t, ok)
	hc.retry.InitialBackoff = time.Millisecond
	hc.retry.MaxBackoff = 2 * time.Millisecond
}

func TestSearchTopAds_DecodesResponse(t *testing.T) {
	var gotToken string
	var gotBody SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/top_ads/search", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		gotToken = r.Header.Get("Access-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": 0, "message": "OK", "data": {"materials": [
			{"id": "m1", "brand_name": "GlowCo", "cover_url": "https://cdn.example.com/m1.jpg",
			 "like": 12000, "ctr": 0.034, "duration_days": 42}
		]}}`))
	}))
	defer srv.Close()

	c := NewClient("tok-123", WithBaseURL(srv.URL), WithRateLimit(100))
	resp, err := c.SearchTopAds(context.Background(), SearchRequest{IndustryKeyword: "skincare", Limit: 30})

	require.NoError(t, err)
	require.Len(t, resp.Data.Materials, 1)
	m := resp.Data.Materials[0]
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "GlowCo", m.BrandName)
	assert.Equal(t, 42, m.DurationDays)

	assert.Equal(t, "tok-123", gotToken)
	assert.Equal(t, "skincare", gotBody.IndustryKeyword)
	assert.Equal(t, 30, gotBody.Limit)
}

func TestSearchTopAds_APIErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 40105, "message": "access token expired"}`))
	}))
	defer srv.Close()

	c := NewClient("expired", WithBaseURL(srv.URL), WithRateLimit(100))
	_, err := c.SearchTopAds(context.Background(), SearchRequest{IndustryKeyword: "skincare"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "40105")
}

func TestSearchTopAds_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"code": 0, "message": "OK", "data": {"materials": []}}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(100))
	fastenRetry(t, c)

	resp, err := c.SearchTopAds(context.Background(), SearchRequest{IndustryKeyword: "fitness"})

	require.NoError(t, err)
	assert.Empty(t, resp.Data.Materials)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchTopAds_DefaultLimit(t *testing.T) {
	var gotBody SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code": 0, "data": {"materials": []}}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(100))
	_, err := c.SearchTopAds(context.Background(), SearchRequest{IndustryKeyword: "fitness"})

	require.NoError(t, err)
	assert.Equal(t, 50, gotBody.Limit)
}
