// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/assemble"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/rank"
	"github.com/pdiddy/evidence-engine/internal/research"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// loadRanker returns the ranker for cfg, reading the weight table file when
// one is configured.
func loadRanker(cfg types.ResearchConfig) (*rank.Ranker, error) {
	if cfg.WeightsFile == "" {
		return rank.Default(), nil
	}
	w, err := rank.LoadWeights(cfg.WeightsFile)
	if err != nil {
		return nil, err
	}
	return rank.New(w)
}

// buildEngine wires adapters, ranker, and metrics into an Engine. A nil
// registerer disables metrics.
func buildEngine(cfg types.ResearchConfig, reg prometheus.Registerer) (*research.Engine, *metrics.Metrics, error) {
	adapters, err := sources.New(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	ranker, err := loadRanker(cfg)
	if err != nil {
		return nil, nil, err
	}
	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}
	logger.Debug("engine configured",
		zap.Int("adapters", len(adapters)),
		zap.String("weights", ranker.Weights().Version),
		zap.Duration("deadline", cfg.Deadline),
	)
	return research.NewEngine(research.Config{
		Adapters: adapters,
		Deadline: cfg.Deadline,
		Ranker:   ranker,
		Caps:     assemble.CapsFrom(cfg),
		Logger:   logger,
		Metrics:  m,
	}), m, nil
}

// failedNames lists the sources that failed in meta.
func failedNames(meta research.Meta) []string {
	var out []string
	for _, s := range meta.Failed() {
		out = append(out, string(s))
	}
	return out
}
