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

// europePMCSearchBase is the Europe PMC REST search endpoint.
var europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// europePMCArticleBase prefixes "<source>/<id>" to form the article page.
var europePMCArticleBase = "https://europepmc.org/article/"

// EuropePMC queries the Europe PMC literature index.
type EuropePMC struct {
	Transport
	Limit int
}

func (a *EuropePMC) Source() types.Source { return types.SourceEuropePMC }

// Search queries Europe PMC's lite result type, which carries the
// publication types and citation counts.
func (a *EuropePMC) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty Europe PMC query")
	}
	params := url.Values{
		"query":      {terms},
		"format":     {"json"},
		"resultType": {"lite"},
		"pageSize":   {strconv.Itoa(limitOr(a.Limit, a.Source()))},
	}

	var resp europePMCResponse
	if err := a.getJSON(ctx, europePMCSearchBase+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("Europe PMC: %w", err)
	}

	var out []types.Citation
	for _, r := range resp.ResultList.Results {
		out = append(out, r.citation())
	}
	return out, nil
}

func (r europePMCResult) citation() types.Citation {
	id := clean(r.ID)
	src := firstNonEmpty(r.Source, "MED")
	link := ""
	if id != "" {
		link = europePMCArticleBase + src + "/" + id
	}
	title := strings.TrimSuffix(clean(r.Title), ".")
	c := types.NewCitation(types.SourceEuropePMC, id, title, link)
	c.Date = types.NormalizeDate(firstNonEmpty(r.FirstPublicationDate, r.PubYear))

	extra := &types.Extra{
		Journal: clean(r.JournalTitle),
		DOI:     clean(r.DOI),
		PMID:    clean(r.PMID),
	}
	if r.CitedByCount != nil {
		extra.CitationCount = types.Int(*r.CitedByCount)
	}
	extra.Phase, extra.EvidenceTier = pubmedTier(strings.Split(r.PubType, ";"), title)
	c.Extra = extra
	return c
}

// Europe PMC JSON structures.
type europePMCResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Results []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	ID                   string `json:"id"`
	Source               string `json:"source"`
	PMID                 string `json:"pmid"`
	DOI                  string `json:"doi"`
	Title                string `json:"title"`
	JournalTitle         string `json:"journalTitle"`
	PubYear              string `json:"pubYear"`
	FirstPublicationDate string `json:"firstPublicationDate"`
	PubType              string `json:"pubType"`
	CitedByCount         *int   `json:"citedByCount"`
}
