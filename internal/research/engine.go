// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/assemble"
	"github.com/pdiddy/evidence-engine/internal/dedupe"
	"github.com/pdiddy/evidence-engine/internal/followup"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/rank"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var (
	// ErrEmptyQuery is returned when a request has no searchable terms.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrAllSourcesFailed is returned by SearchTrials when no trial registry
	// answered. Registries that answered with nothing are not failures.
	ErrAllSourcesFailed = errors.New("all trial sources failed")

	// ErrUnknownSource is returned for a source filter that names no trial
	// registry.
	ErrUnknownSource = errors.New("unknown trial source")

	// ErrInvalidRequest wraps malformed filter values.
	ErrInvalidRequest = errors.New("invalid request")
)

// Engine runs full research requests: orchestration, deduplication,
// ranking, and assembly.
type Engine struct {
	orch      *Orchestrator
	ranker    *rank.Ranker
	suggester followup.Suggester
	caps      assemble.Caps
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Config wires an Engine. Nil fields get defaults.
type Config struct {
	Adapters  []sources.Adapter
	Deadline  time.Duration
	Ranker    *rank.Ranker
	Suggester followup.Suggester
	Caps      assemble.Caps
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Ranker == nil {
		cfg.Ranker = rank.Default()
	}
	if cfg.Suggester == nil {
		cfg.Suggester = followup.Templates{}
	}
	return &Engine{
		orch:      NewOrchestrator(cfg.Adapters, cfg.Deadline, cfg.Logger, cfg.Metrics),
		ranker:    cfg.Ranker,
		suggester: cfg.Suggester,
		caps:      cfg.Caps,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Ranker returns the ranker the engine scores with.
func (e *Engine) Ranker() *rank.Ranker { return e.ranker }

// BundleRequest is a research bundle query.
type BundleRequest struct {
	Query     string
	Countries []string
	Audience  followup.Audience
}

// Bundle runs the recruiting-trial search and the literature search in
// parallel, each independently of the other's failure, then deduplicates,
// ranks, and caps the merged list. Only an empty query is an error.
func (e *Engine) Bundle(ctx context.Context, req BundleRequest) (assemble.Bundle, error) {
	b, _, err := e.BundleWithMeta(ctx, req)
	return b, err
}

// BundleWithMeta is Bundle plus the merged metadata of both searches.
func (e *Engine) BundleWithMeta(ctx context.Context, req BundleRequest) (assemble.Bundle, Meta, error) {
	start := time.Now()
	text := strings.TrimSpace(req.Query)
	if text == "" {
		return assemble.Bundle{}, Meta{}, ErrEmptyQuery
	}

	trialQ := sources.Query{Text: text, Countries: req.Countries, Recruiting: true}
	paperQ := sources.Query{Text: text}
	settled := SettleAll(ctx,
		func(ctx context.Context) (Result, error) {
			return e.orch.Research(ctx, trialQ, Options{Scope: ScopeTrials}), nil
		},
		func(ctx context.Context) (Result, error) {
			return e.orch.Research(ctx, paperQ, Options{Scope: ScopeLiterature}), nil
		},
	)

	var (
		candidates []types.Citation
		meta       Meta
	)
	for i, s := range settled {
		if s.Err != nil {
			e.logger.Error("research branch failed", zap.Int("branch", i), zap.Error(s.Err))
			continue
		}
		candidates = append(candidates, s.Value.Citations...)
		meta.Widened = meta.Widened || s.Value.Meta.Widened
		meta.Outcomes = append(meta.Outcomes, s.Value.Meta.Outcomes...)
	}

	trials, papers := e.rankSplit(candidates, text)
	all := append(append([]types.Citation(nil), trials...), papers...)

	followUps, err := e.suggester.Suggest(ctx, text, req.Audience, all)
	if err != nil {
		e.logger.Warn("follow-up suggestion failed", zap.Error(err))
		followUps = nil
	}

	took := time.Since(start)
	meta.TookMs = took.Milliseconds()
	e.metrics.ObserveAggregation("bundle", meta.Widened, took)
	e.logger.Info("bundle assembled",
		zap.String("query", text),
		zap.Int("candidates", len(candidates)),
		zap.Int("trials", len(trials)),
		zap.Int("papers", len(papers)),
		zap.Bool("widened", meta.Widened),
		zap.Duration("took", took),
	)
	return assemble.Assemble(trials, papers, followUps, took, e.caps), meta, nil
}

// rankSplit deduplicates and ranks the candidates, then splits them by kind
// keeping rank order within each.
func (e *Engine) rankSplit(candidates []types.Citation, topic string) (trials, papers []types.Citation) {
	unique := dedupe.Dedupe(candidates)
	e.metrics.ObserveDedupe(len(candidates) - len(unique))
	for _, c := range e.ranker.Rank(unique, topic) {
		if c.Kind == types.KindTrial {
			trials = append(trials, c)
		} else {
			papers = append(papers, c)
		}
	}
	return trials, papers
}

// TrialRequest is a trial search query. All filters are optional.
type TrialRequest struct {
	Query   string
	Phase   string // "1".."4"
	Status  string
	Country string
	Genes   []string
	Source  string
}

// TrialResult is the outcome of SearchTrials.
type TrialResult struct {
	Trials  []assemble.TrialRow `json:"trials"`
	Widened bool                `json:"widened"`
	TookMs  int64               `json:"tookMs"`
}

// SearchTrials queries the trial registries only. Unlike Bundle it reports
// failure: invalid filters, a request with neither terms nor filters, and
// the case where every registry failed are errors.
func (e *Engine) SearchTrials(ctx context.Context, req TrialRequest) (TrialResult, error) {
	start := time.Now()
	q, only, err := req.query()
	if err != nil {
		return TrialResult{}, err
	}
	if !e.orch.HasTrials() {
		return TrialResult{}, fmt.Errorf("%w: no trial registries enabled", ErrAllSourcesFailed)
	}

	res := e.orch.Research(ctx, q, Options{Scope: ScopeTrials})
	if !anyOK(res.Meta.Outcomes) {
		return TrialResult{}, fmt.Errorf("%w: %v", ErrAllSourcesFailed, res.Meta.Failed())
	}

	unique := dedupe.Dedupe(res.Citations)
	e.metrics.ObserveDedupe(len(res.Citations) - len(unique))
	scored := e.ranker.RankScored(unique, q.Text)
	if only != "" {
		kept := scored[:0]
		for _, s := range scored {
			if s.Citation.Source == only {
				kept = append(kept, s)
			}
		}
		scored = kept
	}

	took := time.Since(start)
	e.metrics.ObserveAggregation("trials", res.Meta.Widened, took)
	return TrialResult{
		Trials:  assemble.TrialRows(scored),
		Widened: res.Meta.Widened,
		TookMs:  took.Milliseconds(),
	}, nil
}

// query validates the request and converts it to an adapter query plus the
// optional source filter.
func (r TrialRequest) query() (sources.Query, types.Source, error) {
	q := sources.Query{
		Text:   strings.TrimSpace(r.Query),
		Genes:  r.Genes,
		Status: strings.TrimSpace(r.Status),
	}
	if c := strings.TrimSpace(r.Country); c != "" {
		q.Countries = []string{c}
	}
	switch p := strings.TrimSpace(r.Phase); p {
	case "":
	case "1", "2", "3", "4":
		q.Phase = int(p[0] - '0')
	default:
		return q, "", fmt.Errorf("%w: phase %q must be 1, 2, 3, or 4", ErrInvalidRequest, r.Phase)
	}
	// Filters alone are a valid search; registries that need terms fail
	// at the adapter boundary.
	if q.IsEmpty() && !q.Filtered() {
		return q, "", ErrEmptyQuery
	}

	var only types.Source
	if s := strings.TrimSpace(r.Source); s != "" {
		src, err := types.ParseSource(s)
		if err != nil || src.Kind() != types.KindTrial {
			return q, "", fmt.Errorf("%w: %q", ErrUnknownSource, r.Source)
		}
		only = src
	}
	return q, only, nil
}

func anyOK(outcomes []sources.Outcome) bool {
	for _, o := range outcomes {
		if o.OK() {
			return true
		}
	}
	return false
}
