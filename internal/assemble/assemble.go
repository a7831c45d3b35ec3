// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble turns ranked citations into the caller-facing shapes: the
// research bundle and trial rows.
package assemble

import (
	"time"

	"github.com/pdiddy/evidence-engine/internal/rank"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Default output bounds.
const (
	DefaultTrialCap = 6
	DefaultTotalCap = 12
)

// Caps bounds the bundle. Zero or negative fields fall back to the defaults.
type Caps struct {
	Trials int
	Total  int
}

// CapsFrom reads the caps out of the research configuration.
func CapsFrom(cfg types.ResearchConfig) Caps {
	return Caps{Trials: cfg.TrialCap, Total: cfg.TotalCap}
}

func (c Caps) normalized() Caps {
	if c.Total <= 0 {
		c.Total = DefaultTotalCap
	}
	if c.Trials <= 0 {
		c.Trials = DefaultTrialCap
	}
	if c.Trials > c.Total {
		c.Trials = c.Total
	}
	return c
}

// Bundle is the body of a research bundle response.
type Bundle struct {
	Citations []types.Citation `json:"citations"`
	FollowUps []string         `json:"followUps"`
	TookMs    int64            `json:"tookMs"`
}

// EmptyBundle is the degraded shape returned when bundle assembly fails.
func EmptyBundle(took time.Duration) Bundle {
	return Bundle{
		Citations: []types.Citation{},
		FollowUps: []string{},
		TookMs:    took.Milliseconds(),
	}
}

// TrialCitation retitles a trial as "<registry>:<id> — <title>".
func TrialCitation(c types.Citation) types.Citation {
	if c.ID == "" {
		return c.WithTitle(string(c.Source) + " — " + c.Title)
	}
	return c.WithTitle(string(c.Source) + ":" + c.ID + " — " + c.Title)
}

// Assemble merges ranked trials and ranked papers. At most caps.Trials trials
// lead, papers fill the rest up to caps.Total. Each input keeps its order.
func Assemble(trials, papers []types.Citation, followUps []string, took time.Duration, caps Caps) Bundle {
	caps = caps.normalized()
	b := EmptyBundle(took)

	for _, c := range trials {
		if len(b.Citations) == caps.Trials {
			break
		}
		b.Citations = append(b.Citations, TrialCitation(c))
	}
	for _, c := range papers {
		if len(b.Citations) == caps.Total {
			break
		}
		b.Citations = append(b.Citations, c)
	}
	if followUps != nil {
		b.FollowUps = append(b.FollowUps, followUps...)
	}
	return b
}

// TrialRow is one row of a trial search response.
type TrialRow struct {
	ID         string   `json:"id"`
	Registry   string   `json:"registry"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Phase      string   `json:"phase,omitempty"`
	Status     string   `json:"status,omitempty"`
	Recruiting *bool    `json:"recruiting,omitempty"`
	Countries  []string `json:"countries,omitempty"`
	Date       string   `json:"date,omitempty"`
	Score      int      `json:"score"`
}

// TrialRows flattens scored trials into rows, keeping rank order.
func TrialRows(scored []rank.Scored) []TrialRow {
	rows := make([]TrialRow, 0, len(scored))
	for _, s := range scored {
		c := s.Citation
		row := TrialRow{
			ID:       c.ID,
			Registry: string(c.Source),
			Title:    c.Title,
			URL:      c.URL,
			Date:     c.Date,
			Score:    s.Score,
		}
		if e := c.Extra; e != nil {
			row.Phase = e.Phase
			row.Status = e.Status
			row.Recruiting = e.Recruiting
			row.Countries = append([]string(nil), e.Countries...)
		}
		rows = append(rows, row)
	}
	return rows
}
