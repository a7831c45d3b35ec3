// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

var phaseSeparators = strings.NewReplacer(
	"phase", " ", "/", " ", ",", " ", "-", " ", "(", " ", ")", " ",
	"+", " ", "_", " ", "|", " ", ":", " ", ";", " ", "&", " ",
)

// phaseNumerals maps the numeral tokens registries use to a phase number.
// "1b" and "2a" style sub-phases count as their parent phase.
var phaseNumerals = map[string]int{
	"1": 1, "i": 1, "1a": 1, "1b": 1, "ia": 1, "ib": 1,
	"2": 2, "ii": 2, "2a": 2, "2b": 2, "iia": 2, "iib": 2,
	"3": 3, "iii": 3, "3a": 3, "3b": 3, "iiia": 3, "iiib": 3,
	"4": 4, "iv": 4,
}

// NormalizePhase maps a registry's phase wording onto the shared
// vocabulary. It accepts ClinicalTrials.gov enums ("PHASE2", "EARLY_PHASE1"),
// roman and arabic numerals ("II", "Phase 2"), combined phases
// ("Phase 2/ Phase 3", "PHASE1, PHASE2") and EU wording ("Therapeutic
// confirmatory (Phase III)"). Unrecognized input yields PhaseUnstated.
func NormalizePhase(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return types.PhaseUnstated
	}
	early := strings.Contains(s, "early")

	lo, hi := 0, 0
	for _, tok := range strings.Fields(phaseSeparators.Replace(s)) {
		n, ok := phaseNumerals[tok]
		if !ok {
			// "phase1" loses its prefix to the replacer; "early1" does not.
			n, ok = phaseNumerals[strings.TrimPrefix(tok, "early")]
		}
		if !ok {
			continue
		}
		if lo == 0 || n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}

	switch {
	case hi == 0:
		return types.PhaseUnstated
	case early && hi == 1:
		return types.PhaseEarly1
	case lo == 1 && hi == 2:
		return types.Phase1to2
	case lo == 2 && hi == 3:
		return types.Phase2to3
	}
	switch hi {
	case 1:
		return types.Phase1
	case 2:
		return types.Phase2
	case 3:
		return types.Phase3
	default:
		return types.Phase4
	}
}

var notRecruitingPhrases = []string{
	"not yet", "no longer", "not recruiting", "closed", "completed",
	"terminated", "withdrawn", "suspended", "stopped", "prematurely",
	"enrolling by invitation",
}

var recruitingPhrases = []string{"recruiting", "open to recruitment", "ongoing", "restarted", "open"}

// recruitingFromStatus interprets a registry status. It returns nil when
// the registry stated nothing, so the ranker sees absent signal rather than
// "not recruiting".
func recruitingFromStatus(status string) *bool {
	s := normalizeStatus(status)
	if s == "" {
		return nil
	}
	for _, p := range notRecruitingPhrases {
		if strings.Contains(s, p) {
			return types.Bool(false)
		}
	}
	for _, p := range recruitingPhrases {
		if strings.Contains(s, p) {
			return types.Bool(true)
		}
	}
	return types.Bool(false)
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.NewReplacer("_", " ", "-", " ", ",", " ").Replace(s))
	return strings.Join(strings.Fields(s), " ")
}

// statusMatches compares a record's status with a requested one,
// ignoring case and separators ("ACTIVE_NOT_RECRUITING" matches
// "active, not recruiting").
func statusMatches(have, want string) bool {
	h, w := normalizeStatus(have), normalizeStatus(want)
	if h == "" || w == "" {
		return false
	}
	return h == w || strings.Contains(h, w)
}

var countryAliases = map[string]string{
	"usa":                      "united states",
	"us":                       "united states",
	"u.s.":                     "united states",
	"u.s.a.":                   "united states",
	"united states of america": "united states",
	"uk":                       "united kingdom",
	"great britain":            "united kingdom",
	"england":                  "united kingdom",
	"republic of korea":        "korea, republic of",
	"south korea":              "korea, republic of",
}

func canonicalCountry(c string) string {
	c = strings.ToLower(strings.Join(strings.Fields(c), " "))
	if alias, ok := countryAliases[c]; ok {
		return alias
	}
	return c
}

func countrySet(countries []string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, c := range countries {
		if c = canonicalCountry(c); c != "" {
			set.Add(c)
		}
	}
	return set
}

// countriesOverlap reports whether any of have is one of want.
func countriesOverlap(have, want []string) bool {
	return countrySet(have).Intersect(countrySet(want)).Cardinality() > 0
}

// dedupCountries drops repeated and blank countries, keeping first-seen
// order. Registries list one entry per site.
func dedupCountries(in []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	var out []string
	for _, c := range in {
		c = clean(c)
		if c == "" || !seen.Add(canonicalCountry(c)) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// tierFromTitle labels literature that has no trial phase, using the
// wording authors put in titles.
func tierFromTitle(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "meta-analysis") || strings.Contains(t, "meta analysis"):
		return types.TierLabelMetaAnalysis
	case strings.Contains(t, "systematic review"):
		return types.TierLabelSystematicReview
	case strings.Contains(t, "review"):
		return types.TierLabelReview
	case strings.Contains(t, "adverse event") || strings.Contains(t, "adverse reaction") ||
		strings.Contains(t, "safety signal") || strings.Contains(t, "toxicity"):
		return types.TierLabelAdverseEvent
	case strings.Contains(t, "drug label") || strings.Contains(t, "prescribing information") ||
		strings.Contains(t, "boxed warning"):
		return types.TierLabelDrugLabel
	}
	return ""
}

// phaseFromTitle recovers a phase from a paper title such as "A phase III
// randomized trial of ...". Only the word right after "phase" counts.
func phaseFromTitle(title string) string {
	t := strings.ToLower(title)
	i := strings.Index(t, "phase")
	if i < 0 {
		return types.PhaseUnstated
	}
	rest := strings.Fields(t[i+len("phase"):])
	if len(rest) == 0 {
		return types.PhaseUnstated
	}
	return NormalizePhase("phase " + strings.TrimRight(rest[0], ",.;:"))
}
