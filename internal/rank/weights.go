// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// DefaultVersion names the built-in weight table.
const DefaultVersion = "2024.1"

// TierWeights holds one point value per evidentiary tier. Values must be
// strictly decreasing from PhaseIII to Unlabeled.
type TierWeights struct {
	PhaseIII   int `json:"phase_iii" yaml:"phase_iii"`
	PhaseII    int `json:"phase_ii" yaml:"phase_ii"`
	PhaseI     int `json:"phase_i" yaml:"phase_i"`
	Review     int `json:"review" yaml:"review"`
	SafetyNote int `json:"safety_note" yaml:"safety_note"`
	Unlabeled  int `json:"unlabeled" yaml:"unlabeled"`
}

// Weights is a versioned, immutable ranking table. It is passed by value;
// callers that want different weights build a different table.
type Weights struct {
	Version string `json:"version" yaml:"version"`

	// Source-class weight: every trial gets TrialSource, every paper
	// PaperSource.
	TrialSource int `json:"trial_source" yaml:"trial_source"`
	PaperSource int `json:"paper_source" yaml:"paper_source"`

	// TopicMatch is awarded when the topic appears verbatim in the title.
	TopicMatch int `json:"topic_match" yaml:"topic_match"`

	// Recruiting is awarded when the registry says the trial is recruiting.
	Recruiting int `json:"recruiting" yaml:"recruiting"`

	// Recent is a flat bonus for records dated within RecencyWindow.
	Recent        int           `json:"recent" yaml:"recent"`
	RecencyWindow time.Duration `json:"recency_window" yaml:"recency_window"`

	Tiers TierWeights `json:"tiers" yaml:"tiers"`
}

// DefaultWeights returns the built-in table. With it a recruiting Phase I
// trial whose title matches the topic (30+10+15+10 = 65) outranks a
// non-recruiting Phase III trial that does not (30+25 = 55).
func DefaultWeights() Weights {
	return Weights{
		Version:       DefaultVersion,
		TrialSource:   30,
		PaperSource:   10,
		TopicMatch:    15,
		Recruiting:    10,
		Recent:        5,
		RecencyWindow: 365 * 24 * time.Hour,
		Tiers: TierWeights{
			PhaseIII:   25,
			PhaseII:    18,
			PhaseI:     10,
			Review:     6,
			SafetyNote: 3,
			Unlabeled:  0,
		},
	}
}

// Validate checks the table's ordering invariants.
func (w Weights) Validate() error {
	var errs []error
	if w.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}
	if w.TrialSource <= w.PaperSource {
		errs = append(errs, fmt.Errorf("trial_source (%d) must exceed paper_source (%d)", w.TrialSource, w.PaperSource))
	}
	nonNegative := []struct {
		name string
		v    int
	}{
		{"paper_source", w.PaperSource}, {"topic_match", w.TopicMatch},
		{"recruiting", w.Recruiting}, {"recent", w.Recent}, {"tiers.unlabeled", w.Tiers.Unlabeled},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", f.name))
		}
	}
	if w.RecencyWindow <= 0 {
		errs = append(errs, errors.New("recency_window must be positive"))
	}
	t := w.Tiers
	ordered := []struct {
		name string
		v    int
	}{
		{"phase_iii", t.PhaseIII}, {"phase_ii", t.PhaseII}, {"phase_i", t.PhaseI},
		{"review", t.Review}, {"safety_note", t.SafetyNote}, {"unlabeled", t.Unlabeled},
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].v <= ordered[i].v {
			errs = append(errs, fmt.Errorf("tiers.%s (%d) must exceed tiers.%s (%d)",
				ordered[i-1].name, ordered[i-1].v, ordered[i].name, ordered[i].v))
		}
	}
	return errors.Join(errs...)
}

// LoadWeights reads a YAML weight table. Fields the file omits keep their
// default values; the result is validated.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("reading weights file: %w", err)
	}
	return ParseWeights(data)
}

// ParseWeights decodes a YAML weight table over the defaults.
func ParseWeights(data []byte) (Weights, error) {
	w := DefaultWeights()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parsing weights: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("invalid weights %q: %w", w.Version, err)
	}
	return w, nil
}

// YAML renders the table in the format LoadWeights reads.
func (w Weights) YAML() ([]byte, error) {
	return yaml.Marshal(w)
}
