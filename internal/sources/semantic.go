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

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,url,externalIds,year,publicationDate,venue,citationCount,publicationTypes"

// SemanticScholar queries the Semantic Scholar graph API.
type SemanticScholar struct {
	Transport
	Limit  int
	APIKey string
}

func (a *SemanticScholar) Source() types.Source { return types.SourceSemanticScholar }

// Search queries the Semantic Scholar API and returns papers in relevance
// order.
func (a *SemanticScholar) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	params := url.Values{
		"query":  {terms},
		"limit":  {strconv.Itoa(limitOr(a.Limit, a.Source()))},
		"fields": {semanticFields},
	}

	t := a.Transport
	if a.APIKey != "" {
		t = t.withHeader("x-api-key", a.APIKey)
	}
	var sr semanticResponse
	if err := t.getJSON(ctx, semanticAPIBase+"?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("Semantic Scholar API: %w", err)
	}

	var out []types.Citation
	for _, paper := range sr.Data {
		out = append(out, paper.citation())
	}
	return out, nil
}

func (p semanticPaper) citation() types.Citation {
	// Prefer the DOI as identifier so the record dedups against the
	// literature indexes.
	ids := p.ExternalIDs
	id := firstNonEmpty(ids.DOI, p.PaperID)
	link := firstNonEmpty(p.URL)
	if link == "" && p.PaperID != "" {
		link = "https://www.semanticscholar.org/paper/" + p.PaperID
	}
	c := types.NewCitation(types.SourceSemanticScholar, id, p.Title, link)

	switch {
	case p.PublicationDate != "":
		c.Date = types.NormalizeDate(p.PublicationDate)
	case p.Year > 0:
		c.Date = strconv.Itoa(p.Year)
	}

	extra := &types.Extra{
		DOI:           clean(ids.DOI),
		PMID:          clean(ids.PubMed),
		Journal:       clean(p.Venue),
		CitationCount: p.CitationCount,
	}
	extra.Phase, extra.EvidenceTier = semanticTier(p.PublicationTypes, p.Title)
	c.Extra = extra
	return c
}

func semanticTier(pubTypes []string, title string) (phase, tier string) {
	mapped := make([]string, 0, len(pubTypes))
	for _, pt := range pubTypes {
		switch strings.ToLower(pt) {
		case "metaanalysis":
			mapped = append(mapped, "Meta-Analysis")
		case "review":
			mapped = append(mapped, "Review")
		}
	}
	return pubmedTier(mapped, title)
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID          string              `json:"paperId"`
	Title            string              `json:"title"`
	URL              string              `json:"url"`
	Venue            string              `json:"venue"`
	Year             int                 `json:"year"`
	PublicationDate  string              `json:"publicationDate"`
	CitationCount    *int                `json:"citationCount"`
	PublicationTypes []string            `json:"publicationTypes"`
	ExternalIDs      semanticExternalIDs `json:"externalIds"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	PubMed   string `json:"PubMed"`
	CorpusID int    `json:"CorpusId"`
}
