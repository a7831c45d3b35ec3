// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// crossrefWorksBase is the Crossref works endpoint.
var crossrefWorksBase = "https://api.crossref.org/works"

// Crossref queries Crossref's DOI metadata. Coverage is broad but records
// are thin, so Crossref loses most dedup contests.
type Crossref struct {
	Transport
	Limit int
	// Mailto routes requests to Crossref's polite pool.
	Mailto string
}

func (a *Crossref) Source() types.Source { return types.SourceCrossref }

// Search queries Crossref works by bibliographic relevance.
func (a *Crossref) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty Crossref query")
	}
	params := url.Values{
		"query":  {terms},
		"rows":   {strconv.Itoa(limitOr(a.Limit, a.Source()))},
		"select": {"DOI,title,URL,container-title,issued,published,is-referenced-by-count,type"},
	}
	if a.Mailto != "" {
		params.Set("mailto", a.Mailto)
	}

	var resp crossrefResponse
	if err := a.getJSON(ctx, crossrefWorksBase+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("Crossref: %w", err)
	}

	var out []types.Citation
	for _, item := range resp.Message.Items {
		out = append(out, item.citation())
	}
	return out, nil
}

func (it crossrefItem) citation() types.Citation {
	doi := clean(it.DOI)
	var title string
	if len(it.Title) > 0 {
		title = it.Title[0]
	}
	link := clean(it.URL)
	if link == "" && doi != "" {
		link = "https://doi.org/" + doi
	}
	c := types.NewCitation(types.SourceCrossref, doi, clean(title), link)
	c.Date = firstNonEmpty(it.Published.iso(), it.Issued.iso())

	extra := &types.Extra{
		DOI:           doi,
		CitationCount: it.ReferencedBy,
	}
	if len(it.ContainerTitle) > 0 {
		extra.Journal = clean(it.ContainerTitle[0])
	}
	extra.Phase = phaseFromTitle(title)
	extra.EvidenceTier = tierFromTitle(title)
	c.Extra = extra
	return c
}

// Crossref JSON structures.
type crossrefResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int            `json:"total-results"`
		Items        []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	DOI            string       `json:"DOI"`
	Title          []string     `json:"title"`
	URL            string       `json:"URL"`
	Type           string       `json:"type"`
	ContainerTitle []string     `json:"container-title"`
	ReferencedBy   *int         `json:"is-referenced-by-count"`
	Issued         crossrefDate `json:"issued"`
	Published      crossrefDate `json:"published"`
}

// crossrefDate is Crossref's {"date-parts": [[2023, 5, 14]]} where month
// and day are optional.
type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) iso() string {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] <= 0 {
		return ""
	}
	parts := d.DateParts[0]
	s := make([]string, 0, 3)
	s = append(s, fmt.Sprintf("%04d", parts[0]))
	for _, p := range parts[1:min(len(parts), 3)] {
		s = append(s, fmt.Sprintf("%02d", p))
	}
	return types.NormalizeDate(strings.Join(s, "-"))
}
