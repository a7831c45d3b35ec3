// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores citations with additive, lexical and metadata-based
// signals and orders them stably.
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Tier is the evidentiary tier of a citation, weakest first.
type Tier int

const (
	TierUnlabeled Tier = iota
	TierSafetyNote
	TierReview
	TierPhaseI
	TierPhaseII
	TierPhaseIII
)

var tierNames = map[Tier]string{
	TierUnlabeled:  "unlabeled",
	TierSafetyNote: "safety-note",
	TierReview:     "review",
	TierPhaseI:     "phase-i",
	TierPhaseII:    "phase-ii",
	TierPhaseIII:   "phase-iii",
}

func (t Tier) String() string { return tierNames[t] }

// TierOf maps a citation's phase or evidence label to a tier. A trial
// phase wins over a label; a combined phase counts as its higher half, so
// "Phase II/III" and "Phase IV" rank with Phase III.
func TierOf(c types.Citation) Tier {
	if c.Extra == nil {
		return TierUnlabeled
	}
	switch types.HighestPhase(c.Extra.Phase) {
	case 3, 4:
		return TierPhaseIII
	case 2:
		return TierPhaseII
	case 1:
		return TierPhaseI
	}
	switch c.Extra.EvidenceTier {
	case types.TierLabelMetaAnalysis, types.TierLabelSystematicReview, types.TierLabelReview:
		return TierReview
	case types.TierLabelAdverseEvent, types.TierLabelDrugLabel:
		return TierSafetyNote
	}
	return TierUnlabeled
}

func (t TierWeights) points(tier Tier) int {
	switch tier {
	case TierPhaseIII:
		return t.PhaseIII
	case TierPhaseII:
		return t.PhaseII
	case TierPhaseI:
		return t.PhaseI
	case TierReview:
		return t.Review
	case TierSafetyNote:
		return t.SafetyNote
	default:
		return t.Unlabeled
	}
}

// Breakdown itemizes a score so a ranking can be audited.
type Breakdown struct {
	Source     int  `json:"source"`
	TopicMatch int  `json:"topic_match"`
	Recruiting int  `json:"recruiting"`
	Recent     int  `json:"recent"`
	Tier       int  `json:"tier"`
	TierName   Tier `json:"-"`
}

// Total sums the signals.
func (b Breakdown) Total() int {
	return b.Source + b.TopicMatch + b.Recruiting + b.Recent + b.Tier
}

// Scored pairs a citation with its score.
type Scored struct {
	Citation  types.Citation
	Score     int
	Breakdown Breakdown
}

// Ranker orders citations with one weight table.
type Ranker struct {
	weights Weights
	now     func() time.Time
}

// New returns a Ranker for w after validating it.
func New(w Weights) (*Ranker, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{weights: w, now: time.Now}, nil
}

// Default returns a Ranker using DefaultWeights.
func Default() *Ranker {
	return &Ranker{weights: DefaultWeights(), now: time.Now}
}

// WithClock returns a copy of r that measures recency against now.
func (r *Ranker) WithClock(now func() time.Time) *Ranker {
	cp := *r
	cp.now = now
	return &cp
}

// Weights returns the table r scores with.
func (r *Ranker) Weights() Weights { return r.weights }

// Score computes the breakdown for one citation.
func (r *Ranker) Score(c types.Citation, topic string) Breakdown {
	return r.score(c, normalizeTopic(topic), r.now())
}

func (r *Ranker) score(c types.Citation, topic string, now time.Time) Breakdown {
	w := r.weights
	var b Breakdown

	if c.Source.Kind() == types.KindTrial {
		b.Source = w.TrialSource
	} else {
		b.Source = w.PaperSource
	}
	if topic != "" && strings.Contains(normalizeTopic(c.Title), topic) {
		b.TopicMatch = w.TopicMatch
	}
	if c.IsRecruiting() {
		b.Recruiting = w.Recruiting
	}
	if recent(c.Date, now, w.RecencyWindow) {
		b.Recent = w.Recent
	}
	b.TierName = TierOf(c)
	b.Tier = w.Tiers.points(b.TierName)
	return b
}

// recent reports whether a possibly partial date overlaps the window
// ending at now. A bare year counts if any part of it does.
func recent(date string, now time.Time, window time.Duration) bool {
	p, ok := types.ParseDate(date)
	if !ok {
		return false
	}
	return !p.End.Before(now.Add(-window)) && !p.Start.After(now)
}

// normalizeTopic lowercases and collapses whitespace so matching ignores
// case and spacing but is otherwise verbatim.
func normalizeTopic(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// RankScored returns every citation with its score, highest first. Equal
// scores keep their input order. The input is not modified.
func (r *Ranker) RankScored(cites []types.Citation, topic string) []Scored {
	topic = normalizeTopic(topic)
	now := r.now()
	out := make([]Scored, len(cites))
	for i, c := range cites {
		b := r.score(c, topic, now)
		out[i] = Scored{Citation: c, Score: b.Total(), Breakdown: b}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Rank reorders cites by score without dropping any.
func (r *Ranker) Rank(cites []types.Citation, topic string) []types.Citation {
	scored := r.RankScored(cites, topic)
	out := make([]types.Citation, len(scored))
	for i, s := range scored {
		out[i] = s.Citation
	}
	return out
}
