package main

import (
	"github.com/adlens/creative-intel/internal/adsource"
	"github.com/adlens/creative-intel/internal/cache"
	"github.com/adlens/creative-intel/internal/collector"
	"github.com/adlens/creative-intel/internal/config"
	"github.com/adlens/creative-intel/internal/evidence"
	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/internal/monitoring"
	"github.com/adlens/creative-intel/internal/pipeline"
	"github.com/adlens/creative-intel/internal/vision"
	"github.com/adlens/creative-intel/pkg/anthropic"
	"github.com/adlens/creative-intel/pkg/metaads"
	"github.com/adlens/creative-intel/pkg/tiktokads"
)

// env holds the wired application components shared by commands.
type env struct {
	Runner   *pipeline.Runner
	Cache    *cache.ResultCache
	Recorder *monitoring.Recorder
}

// initEnv wires providers, clients and the pipeline from config.
func initEnv(c *config.Config) *env {
	registry := adsource.NewRegistry()
	registry.Register(adsource.NewMetaProvider(metaads.NewClient(
		c.Meta.AccessToken,
		metaads.WithBaseURL(c.Meta.BaseURL),
		metaads.WithRateLimit(c.Meta.RateQPS),
	)))
	registry.Register(adsource.NewTikTokProvider(tiktokads.NewClient(
		c.TikTok.AccessToken,
		tiktokads.WithBaseURL(c.TikTok.BaseURL),
		tiktokads.WithRateLimit(c.TikTok.RateQPS),
	)))

	anthClient := anthropic.NewClient(c.Anthropic.Key)
	dims := model.DefaultDimensionRegistry()
	recorder := monitoring.NewRecorder(0)

	runner := pipeline.New(
		collector.New(registry, c.Sampling),
		vision.New(anthClient, dims, c.Anthropic, c.Analysis),
		evidence.New(anthClient, c.Anthropic, c.Analysis),
		dims,
		monitoring.Multi{monitoring.ZapObserver{}, recorder},
		c.Sampling,
		c.Analysis,
	)

	return &env{
		Runner:   runner,
		Cache:    cache.New(c.Cache),
		Recorder: recorder,
	}
}

// Close releases env resources.
func (e *env) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
}
