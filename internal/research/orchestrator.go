// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research orchestrates the source adapters: it fans a query out to
// every configured registry and literature API, widens a strict trial search
// that finds nothing, and feeds the merged candidates through deduplication,
// ranking, and assembly.
package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Scope selects which adapters a Research call uses.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeTrials
	ScopeLiterature
)

func (s Scope) String() string {
	switch s {
	case ScopeTrials:
		return "trials"
	case ScopeLiterature:
		return "literature"
	default:
		return "all"
	}
}

// Options tunes one Research call.
type Options struct {
	Scope Scope
}

// Meta describes how a Research call went.
type Meta struct {
	// Widened is true when the filtered trial search found nothing and the
	// unfiltered one was issued.
	Widened bool  `json:"widened"`
	TookMs  int64 `json:"tookMs"`

	// Outcomes lists every adapter call in issue order, the widened round
	// after the strict one.
	Outcomes []sources.Outcome `json:"-"`
}

// Failed returns the sources whose calls ended in an error.
func (m Meta) Failed() []types.Source {
	var out []types.Source
	for _, o := range m.Outcomes {
		if !o.OK() {
			out = append(out, o.Source)
		}
	}
	return out
}

// Result is the merged, undeduplicated candidate list. Citations is never
// nil.
type Result struct {
	Citations []types.Citation `json:"citations"`
	Meta      Meta             `json:"meta"`
}

// Orchestrator runs adapters concurrently. It holds no per-request state and
// is safe for concurrent use.
type Orchestrator struct {
	trials []sources.Adapter
	papers []sources.Adapter

	deadline time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewOrchestrator splits adapters into trial registries and literature APIs.
// A positive deadline bounds the wall-clock time of each Research call;
// adapters still running when it passes are cancelled and count as failed.
func NewOrchestrator(adapters []sources.Adapter, deadline time.Duration, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	trials, papers := sources.Partition(adapters)
	return &Orchestrator{
		trials:   trials,
		papers:   papers,
		deadline: deadline,
		logger:   logger,
		metrics:  m,
	}
}

// HasTrials reports whether any trial registry is configured.
func (o *Orchestrator) HasTrials() bool { return len(o.trials) > 0 }

// Research fans q out and always returns a result, even when every adapter
// fails. Trial filters in q apply to trial registries only; literature APIs
// receive the bare terms.
//
// If the filtered trial search yields zero citations, the trial registries
// are queried again without filters and Meta.Widened is set. A query with
// no filters is already unfiltered and is never re-issued, and neither is a
// filter-only query, which would have nothing left to search for.
func (o *Orchestrator) Research(ctx context.Context, q sources.Query, opts Options) Result {
	start := time.Now()
	if o.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.deadline)
		defer cancel()
	}

	var trials, papers []sources.Adapter
	if opts.Scope != ScopeLiterature {
		trials = o.trials
	}
	if opts.Scope != ScopeTrials {
		papers = o.papers
	}

	var tasks []Task[sources.Outcome]
	var order []sources.Adapter
	for _, a := range trials {
		tasks = append(tasks, o.fetchTask(a, q))
		order = append(order, a)
	}
	for _, a := range papers {
		tasks = append(tasks, o.fetchTask(a, q.Relaxed()))
		order = append(order, a)
	}
	outcomes := o.settleOutcomes(ctx, order, tasks)

	res := Result{Citations: []types.Citation{}}
	trialHits := 0
	for i, out := range outcomes {
		if i < len(trials) {
			trialHits += len(out.Citations)
		}
	}

	if trialHits == 0 && len(trials) > 0 && q.Filtered() && !q.IsEmpty() {
		res.Meta.Widened = true
		o.logger.Info("widening trial search",
			zap.String("query", q.Terms()),
			zap.Int("registries", len(trials)),
		)
		relaxed := make([]Task[sources.Outcome], len(trials))
		for i, a := range trials {
			relaxed[i] = o.fetchTask(a, q.Relaxed())
		}
		widened := o.settleOutcomes(ctx, trials, relaxed)
		// Strict trial outcomes carried nothing, so the widened ones take
		// their place ahead of the literature.
		merged := make([]sources.Outcome, 0, len(outcomes)+len(widened))
		merged = append(merged, outcomes[:len(trials)]...)
		merged = append(merged, widened...)
		merged = append(merged, outcomes[len(trials):]...)
		outcomes = merged
	}

	for _, out := range outcomes {
		res.Citations = append(res.Citations, out.Citations...)
	}
	res.Meta.Outcomes = outcomes
	res.Meta.TookMs = time.Since(start).Milliseconds()
	return res
}

func (o *Orchestrator) fetchTask(a sources.Adapter, q sources.Query) Task[sources.Outcome] {
	return func(ctx context.Context) (sources.Outcome, error) {
		return sources.Fetch(ctx, a, q), nil
	}
}

func (o *Orchestrator) observe(out sources.Outcome) {
	o.metrics.ObserveSource(string(out.Source), len(out.Citations), out.Err, out.Took)
	if out.Err != nil {
		o.logger.Warn("source failed",
			zap.String("source", string(out.Source)),
			zap.Error(out.Err),
			zap.Duration("took", out.Took),
		)
		return
	}
	o.logger.Debug("source settled",
		zap.String("source", string(out.Source)),
		zap.Int("citations", len(out.Citations)),
		zap.Duration("took", out.Took),
	)
}

// settleOutcomes runs the fetch tasks and maps any task-level failure,
// including an adapter abandoned at the deadline, back onto an empty
// outcome for its adapter. Every outcome is observed here, so abandoned
// adapters never log after the aggregation has returned.
func (o *Orchestrator) settleOutcomes(ctx context.Context, adapters []sources.Adapter, tasks []Task[sources.Outcome]) []sources.Outcome {
	start := time.Now()
	settled := SettleAll(ctx, tasks...)
	out := make([]sources.Outcome, len(settled))
	for i, s := range settled {
		if s.Err != nil {
			out[i] = sources.Outcome{
				Source:    adapters[i].Source(),
				Citations: []types.Citation{},
				Err:       fmt.Errorf("%s: %w", adapters[i].Source(), s.Err),
				Took:      time.Since(start),
			}
		} else {
			out[i] = s.Value
		}
		o.observe(out[i])
	}
	return out
}
