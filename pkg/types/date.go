// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Precision records how much of a date an upstream actually stated.
type Precision int

const (
	PrecisionYear Precision = iota + 1
	PrecisionMonth
	PrecisionDay
)

// Period is the span of time a possibly partial date covers. "2023" covers
// the whole year; "2023-05-14" covers a single day.
type Period struct {
	Start     time.Time
	End       time.Time
	Precision Precision
}

// ISO renders the period at its stated precision.
func (p Period) ISO() string {
	switch p.Precision {
	case PrecisionYear:
		return p.Start.Format("2006")
	case PrecisionMonth:
		return p.Start.Format("2006-01")
	default:
		return p.Start.Format("2006-01-02")
	}
}

type dateLayout struct {
	layout    string
	precision Precision
}

// dateLayouts covers the formats the upstream registries and literature APIs
// are known to emit: ISO variants, PubMed's "2023 Mar 15", the CTRI/EUCTR
// day-first slashes, and ClinicalTrials.gov's long month names.
var dateLayouts = []dateLayout{
	{time.RFC3339, PrecisionDay},
	{"2006-01-02T15:04:05", PrecisionDay},
	{"2006-01-02", PrecisionDay},
	{"2006-01", PrecisionMonth},
	{"2006", PrecisionYear},
	{"2006 Jan 2", PrecisionDay},
	{"2006 Jan", PrecisionMonth},
	{"2006/01/02", PrecisionDay},
	{"02/01/2006", PrecisionDay},
	{"2/1/2006", PrecisionDay},
	{"02-01-2006", PrecisionDay},
	{"January 2, 2006", PrecisionDay},
	{"January 2006", PrecisionMonth},
	{"2 January 2006", PrecisionDay},
	{"02 Jan 2006", PrecisionDay},
}

// ParseDate parses an upstream date string. PubMed seasons ("2023 Spring")
// and ranges ("2023 Mar-Apr") fall back to their leading year.
func ParseDate(raw string) (Period, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Period{}, false
	}
	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		return periodOf(t.UTC(), l.precision), true
	}
	if len(s) > 4 {
		if t, err := time.Parse("2006", s[:4]); err == nil && !isDigit(s[4]) {
			return periodOf(t.UTC(), PrecisionYear), true
		}
	}
	return Period{}, false
}

// NormalizeDate converts an upstream date into the ISO-ish form stored on
// Citation.Date. Unparseable input yields "".
func NormalizeDate(raw string) string {
	p, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	return p.ISO()
}

func periodOf(t time.Time, prec Precision) Period {
	start := t
	var end time.Time
	switch prec {
	case PrecisionYear:
		start = time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	case PrecisionMonth:
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	default:
		start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return Period{Start: start, End: end, Precision: prec}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
