// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe collapses citations that describe the same underlying trial
// or paper, keeping the most complete record of each.
package dedupe

import (
	"strconv"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// sourcePriority breaks richness ties: primary registries outrank
// secondary registries, and PubMed outranks the aggregators that re-index
// it. Lower is better.
var sourcePriority = map[types.Source]int{
	types.SourceCTGov:           0,
	types.SourceISRCTN:          1,
	types.SourceEUCTR:           2,
	types.SourceCTRI:            3,
	types.SourcePubMed:          4,
	types.SourceEuropePMC:       5,
	types.SourceCrossref:        6,
	types.SourceOpenAlex:        7,
	types.SourceSemanticScholar: 8,
}

// Dedupe returns one citation per underlying trial or paper. Records are
// grouped when they share any identifier (see Identifiers), directly or
// through a chain of records, so a registry entry carrying both a DOI and a
// cross-referenced NCT ID joins the records keyed by either. Groups appear
// in the order their first member appeared in the input; the surviving
// member of each group is chosen by Better, so it does not depend on input
// order. Applying Dedupe to its own output changes nothing.
func Dedupe(cites []types.Citation) []types.Citation {
	// Union-find over input positions; a root is always the lowest
	// position in its group.
	parent := make([]int, len(cites))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	owner := make(map[string]int, len(cites))
	for i, c := range cites {
		for _, id := range Identifiers(c) {
			j, ok := owner[id]
			if !ok {
				owner[id] = i
				continue
			}
			ri, rj := find(i), find(j)
			switch {
			case ri < rj:
				parent[rj] = ri
			case rj < ri:
				parent[ri] = rj
			}
		}
	}

	best := make(map[int]int, len(cites))
	var roots []int
	for i, c := range cites {
		r := find(i)
		b, ok := best[r]
		if !ok {
			best[r] = i
			roots = append(roots, r)
			continue
		}
		if Better(c, cites[b]) {
			best[r] = i
		}
	}

	out := make([]types.Citation, 0, len(roots))
	for _, r := range roots {
		out = append(out, cites[best[r]])
	}
	return out
}

// Better reports whether a should survive over b when both share a key. The
// richer record wins; ties go to the higher-priority source, then to a
// fixed lexical comparison so the choice is never a coin flip.
func Better(a, b types.Citation) bool {
	if ra, rb := a.Richness(), b.Richness(); ra != rb {
		return ra > rb
	}
	if pa, pb := priority(a.Source), priority(b.Source); pa != pb {
		return pa < pb
	}
	return fingerprint(a) < fingerprint(b)
}

func priority(s types.Source) int {
	if p, ok := sourcePriority[s]; ok {
		return p
	}
	return len(sourcePriority)
}

// fingerprint orders records that tie on richness and source.
func fingerprint(c types.Citation) string {
	parts := []string{c.ID, c.URL, c.Title, c.Date}
	if e := c.Extra; e != nil {
		parts = append(parts, e.Phase, e.Status, e.Journal, e.EvidenceTier, e.DOI, e.NCTID, e.PMID,
			strings.Join(e.Countries, ","))
		switch {
		case e.Recruiting == nil:
			parts = append(parts, "")
		case *e.Recruiting:
			parts = append(parts, "recruiting")
		default:
			parts = append(parts, "closed")
		}
		if e.CitationCount != nil {
			parts = append(parts, strconv.Itoa(*e.CitationCount))
		} else {
			parts = append(parts, "")
		}
	}
	return strings.Join(parts, "\x00")
}
