// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the evidence engine:
// the unified Citation record every source adapter produces, the source and
// kind discriminants, the phase vocabulary, and configuration.
package types

import (
	"fmt"
	"strings"
)

// Source identifies the upstream registry or literature API a Citation came from.
type Source string

const (
	SourceCTGov           Source = "ctgov"
	SourceCTRI            Source = "ctri"
	SourceEUCTR           Source = "euctr"
	SourceISRCTN          Source = "isrctn"
	SourcePubMed          Source = "pubmed"
	SourceEuropePMC       Source = "europepmc"
	SourceOpenAlex        Source = "openalex"
	SourceSemanticScholar Source = "semanticscholar"
	SourceCrossref        Source = "crossref"
)

// AllSources lists every supported source, trial registries first.
var AllSources = []Source{
	SourceCTGov, SourceCTRI, SourceEUCTR, SourceISRCTN,
	SourcePubMed, SourceEuropePMC, SourceOpenAlex, SourceSemanticScholar, SourceCrossref,
}

// Kind separates trial records from literature records. Trials and papers
// are scored with different weights.
type Kind string

const (
	KindTrial Kind = "trial"
	KindPaper Kind = "paper"
)

// Kind derives the record kind from the source.
func (s Source) Kind() Kind {
	switch s {
	case SourceCTGov, SourceCTRI, SourceEUCTR, SourceISRCTN:
		return KindTrial
	default:
		return KindPaper
	}
}

// Valid reports whether s is one of the supported sources.
func (s Source) Valid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSource maps a user-supplied name onto a Source. Matching is
// case-insensitive and ignores separators, so "Semantic_Scholar" and
// "semanticscholar" are the same source.
func ParseSource(name string) (Source, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "", ".", "").Replace(strings.TrimSpace(name)))
	switch key {
	case "clinicaltrialsgov", "clinicaltrials":
		return SourceCTGov, nil
	case "s2":
		return SourceSemanticScholar, nil
	}
	for _, s := range AllSources {
		if string(s) == key {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", name)
}

// Citation is the unified record all adapters produce. It is built once per
// upstream item and never mutated afterwards; transformations return copies.
type Citation struct {
	// ID is the source-local identifier (DOI, NCT ID, PMID, ISRCTN number...).
	ID string `json:"id" yaml:"id"`

	// Title is required; adapters drop records without one.
	Title string `json:"title" yaml:"title"`

	// URL deep-links to the canonical record.
	URL string `json:"url" yaml:"url"`

	Source Source `json:"source" yaml:"source"`

	// Date is ISO-ish: YYYY-MM-DD, YYYY-MM, or YYYY. Empty when unknown.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	Kind Kind `json:"kind" yaml:"kind"`

	// Extra carries source-specific metadata. Consumers treat absent fields
	// as absent signal, never as zero.
	Extra *Extra `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Extra is the source-specific metadata bag.
type Extra struct {
	// Phase is a normalized label from the phase vocabulary (Phase3 etc.).
	Phase string `json:"phase,omitempty" yaml:"phase,omitempty"`

	// Recruiting is nil when the registry did not report a status.
	Recruiting *bool `json:"recruiting,omitempty" yaml:"recruiting,omitempty"`

	// Status is the registry's own status wording.
	Status string `json:"status,omitempty" yaml:"status,omitempty"`

	Countries []string `json:"countries,omitempty" yaml:"countries,omitempty"`

	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	CitationCount *int `json:"citationCount,omitempty" yaml:"citation_count,omitempty"`

	// EvidenceTier is a label such as "review" or "adverse-event" for records
	// without a trial phase.
	EvidenceTier string `json:"evidenceTier,omitempty" yaml:"evidence_tier,omitempty"`

	// Cross-source identifiers used by deduplication.
	DOI   string `json:"doi,omitempty" yaml:"doi,omitempty"`
	NCTID string `json:"nctId,omitempty" yaml:"nct_id,omitempty"`
	PMID  string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
}

// Evidence tier labels for records that carry no trial phase.
const (
	TierLabelMetaAnalysis     = "meta-analysis"
	TierLabelSystematicReview = "systematic-review"
	TierLabelReview           = "review"
	TierLabelAdverseEvent     = "adverse-event"
	TierLabelDrugLabel        = "label"
)

// NewCitation builds a Citation with Kind derived from src.
func NewCitation(src Source, id, title, url string) Citation {
	return Citation{
		ID:     strings.TrimSpace(id),
		Title:  strings.TrimSpace(title),
		URL:    strings.TrimSpace(url),
		Source: src,
		Kind:   src.Kind(),
	}
}

// Valid reports whether the citation carries the fields every downstream
// stage relies on.
func (c Citation) Valid() bool {
	return strings.TrimSpace(c.Title) != "" && strings.TrimSpace(c.URL) != ""
}

// WithTitle returns a copy of c with a different title.
func (c Citation) WithTitle(title string) Citation {
	c.Title = title
	return c
}

// Year returns the publication year, or 0 when the date is absent or unparseable.
func (c Citation) Year() int {
	d, ok := ParseDate(c.Date)
	if !ok {
		return 0
	}
	return d.Start.Year()
}

// Richness counts populated optional fields: the date plus every non-empty
// field of Extra.
func (c Citation) Richness() int {
	n := 0
	if c.Date != "" {
		n++
	}
	if c.Extra == nil {
		return n
	}
	e := c.Extra
	for _, s := range []string{e.Phase, e.Status, e.Journal, e.EvidenceTier, e.DOI, e.NCTID, e.PMID} {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	if e.Recruiting != nil {
		n++
	}
	if e.CitationCount != nil {
		n++
	}
	if len(e.Countries) > 0 {
		n++
	}
	return n
}

// IsRecruiting reports true only when the registry explicitly said so.
func (c Citation) IsRecruiting() bool {
	return c.Extra != nil && c.Extra.Recruiting != nil && *c.Extra.Recruiting
}

// Bool returns a pointer to b, for populating optional Extra fields.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n.
func Int(n int) *int { return &n }
