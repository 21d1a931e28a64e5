// Package adsource defines the interface and implementations for external
// ad-library providers feeding the collector.
package adsource

import (
	"context"
	"sort"
	"sync"

	"github.com/adlens/creative-intel/internal/model"
)

// Query describes one ad search against a provider.
type Query struct {
	Platform model.Platform
	Industry string
	Limit    int
}

// RawAd is one advertisement as returned by a provider, before tier
// assignment. DeliveryDays is the primary performance proxy used for
// tiering; EngagementProxy is a source-specific engagement magnitude
// (reach, likes) that breaks ties between equally long runs.
type RawAd struct {
	ID              string
	ThumbnailURL    string
	Advertiser      string
	DeliveryDays    int
	EngagementProxy float64
}

// Provider defines the interface for ad-library sources.
type Provider interface {
	// Name returns the source identifier recorded on collected ads.
	Name() string
	// Supports reports whether the provider serves the given platform.
	Supports(platform model.Platform) bool
	// Search fetches ads matching the query.
	Search(ctx context.Context, q Query) ([]RawAd, error)
}

// Registry manages available ad-source providers.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
}

// ForPlatform returns every registered provider serving the platform.
func (r *Registry) ForPlatform(platform model.Platform) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, p := range r.providers {
		if p.Supports(platform) {
			out = append(out, p)
		}
	}
	return out
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}
