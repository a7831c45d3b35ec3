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

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlex queries the OpenAlex works index.
type OpenAlex struct {
	Transport
	Limit int
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

func (a *OpenAlex) Source() types.Source { return types.SourceOpenAlex }

// Search queries the OpenAlex API and returns works in relevance order.
func (a *OpenAlex) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}

	params := url.Values{
		"search":   {terms},
		"per_page": {strconv.Itoa(limitOr(a.Limit, a.Source()))},
		"page":     {"1"},
	}
	if a.Email != "" {
		params.Set("mailto", a.Email)
	}

	var oar openAlexResponse
	if err := a.getJSON(ctx, openAlexSearchBase+"?"+params.Encode(), &oar); err != nil {
		return nil, fmt.Errorf("OpenAlex API: %w", err)
	}

	var out []types.Citation
	for _, work := range oar.Results {
		out = append(out, work.citation())
	}
	return out, nil
}

func (w openAlexWork) citation() types.Citation {
	// OpenAlex is DOI-centric; strip the https://doi.org/ prefix to get the
	// bare DOI and prefer it as identifier.
	doi := strings.TrimPrefix(clean(w.DOI), "https://doi.org/")
	id := doi
	if id == "" {
		id = clean(w.ID)
	}
	link := firstNonEmpty(w.DOI, w.ID)
	c := types.NewCitation(types.SourceOpenAlex, id, w.Title, link)

	switch {
	case w.PublicationDate != "":
		c.Date = types.NormalizeDate(w.PublicationDate)
	case w.PublicationYear > 0:
		c.Date = strconv.Itoa(w.PublicationYear)
	}

	extra := &types.Extra{
		DOI:     doi,
		PMID:    strings.TrimPrefix(w.IDs.PMID, "https://pubmed.ncbi.nlm.nih.gov/"),
		Journal: clean(w.PrimaryLocation.Source.DisplayName),
	}
	extra.PMID = strings.TrimSuffix(extra.PMID, "/")
	if w.CitedByCount != nil {
		extra.CitationCount = types.Int(*w.CitedByCount)
	}
	extra.Phase = phaseFromTitle(w.Title)
	extra.EvidenceTier = tierFromTitle(w.Title)
	if extra.EvidenceTier == "" && strings.EqualFold(w.Type, "review") {
		extra.EvidenceTier = types.TierLabelReview
	}
	c.Extra = extra
	return c
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DOI             string `json:"doi"`
	Type            string `json:"type"`
	PublicationDate string `json:"publication_date"`
	PublicationYear int    `json:"publication_year"`
	CitedByCount    *int   `json:"cited_by_count"`
	IDs             struct {
		PMID string `json:"pmid"`
	} `json:"ids"`
	PrimaryLocation struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
}
