// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

var (
	doiPattern = regexp.MustCompile(`(?i)10\.\d{4,9}/[^\s"<>]+`)
	nctPattern = regexp.MustCompile(`(?i)\bNCT\d{8}\b`)
)

var doiPrefixes = []string{
	"https://doi.org/", "http://doi.org/",
	"https://dx.doi.org/", "http://dx.doi.org/",
	"doi:",
}

// Key returns the primary source-agnostic identity of a citation: its DOI
// when one can be found, else its NCT ID, else its PMID, else the
// normalized title combined with the publication year. Trials prefer the
// NCT ID over a registration DOI. Two citations with equal keys describe
// the same trial or paper; Dedupe also merges records whose keys differ
// but which share any other identifier.
func Key(c types.Citation) string {
	return Identifiers(c)[0]
}

// Identifiers returns every canonical identifier of c, primary first. A
// record with no DOI, NCT ID, or PMID is identified by its title and year
// alone.
func Identifiers(c types.Citation) []string {
	var ids []string
	doi, nct := DOI(c), NCTID(c)
	if c.Kind == types.KindTrial || c.Source.Kind() == types.KindTrial {
		ids = appendID(ids, "nct:", nct)
		ids = appendID(ids, "doi:", doi)
	} else {
		ids = appendID(ids, "doi:", doi)
		ids = appendID(ids, "nct:", nct)
	}
	ids = appendID(ids, "pmid:", PMID(c))
	if len(ids) > 0 {
		return ids
	}
	if title := NormalizeTitle(c.Title); title != "" {
		return []string{"title:" + title + "|" + strconv.Itoa(c.Year())}
	}
	return []string{"record:" + string(c.Source) + "|" + c.ID + "|" + c.URL}
}

func appendID(ids []string, prefix, id string) []string {
	if id == "" {
		return ids
	}
	return append(ids, prefix+id)
}

// DOI returns the canonical DOI of c: lowercased with any resolver scheme
// stripped. It looks at Extra.DOI, then the ID, then the URL.
func DOI(c types.Citation) string {
	candidates := []string{c.ID, c.URL}
	if c.Extra != nil {
		candidates = append([]string{c.Extra.DOI}, candidates...)
	}
	for _, s := range candidates {
		if doi := CanonicalDOI(s); doi != "" {
			return doi
		}
	}
	return ""
}

// CanonicalDOI extracts and normalizes a DOI from s, or returns "".
// "https://doi.org/10.1000/ABC" and "doi:10.1000/abc" are the same DOI.
func CanonicalDOI(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	m := doiPattern.FindString(s)
	if m == "" {
		return ""
	}
	return strings.ToLower(trimDOI(m))
}

// trimDOI drops trailing punctuation picked up from prose or markup,
// keeping a closing parenthesis that balances one inside the DOI.
func trimDOI(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		switch {
		case last == '.' || last == ',' || last == ';':
		case last == ')' && strings.Count(s, ")") > strings.Count(s, "("):
		case last == ']' && strings.Count(s, "]") > strings.Count(s, "["):
		default:
			return s
		}
		s = s[:len(s)-1]
	}
	return s
}

// NCTID returns the uppercased ClinicalTrials.gov identifier of c, from
// Extra.NCTID or an ID that is itself an NCT number.
func NCTID(c types.Citation) string {
	if c.Extra != nil {
		if m := nctPattern.FindString(c.Extra.NCTID); m != "" {
			return strings.ToUpper(m)
		}
	}
	if m := nctPattern.FindString(c.ID); m != "" && len(strings.TrimSpace(c.ID)) == len(m) {
		return strings.ToUpper(m)
	}
	return ""
}

var pmidPrefixes = []string{
	"https://pubmed.ncbi.nlm.nih.gov/", "http://pubmed.ncbi.nlm.nih.gov/",
	"https://www.ncbi.nlm.nih.gov/pubmed/", "http://www.ncbi.nlm.nih.gov/pubmed/",
	"pmid:", "pmid",
}

// PMID returns the PubMed identifier of c without leading zeros, from
// Extra.PMID or, for PubMed records, the ID.
func PMID(c types.Citation) string {
	if c.Extra != nil {
		if pmid := CanonicalPMID(c.Extra.PMID); pmid != "" {
			return pmid
		}
	}
	if c.Source == types.SourcePubMed {
		return CanonicalPMID(c.ID)
	}
	return ""
}

// CanonicalPMID normalizes "PMID: 0123", "123", and PubMed URLs to "123".
// Anything that is not a number of at most nine digits yields "".
func CanonicalPMID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range pmidPrefixes {
		if strings.HasPrefix(s, p) {
			s = s[len(p):]
			break
		}
	}
	s = strings.TrimLeft(strings.Trim(strings.TrimSpace(s), "/"), "0")
	if s == "" || len(s) > 9 {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}

// NormalizeTitle lowercases, strips punctuation, and collapses whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
