// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedESearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedESummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// pubmedArticleBase prefixes a PMID to form the public article page.
var pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"

// PubMed queries NCBI E-utilities: esearch for the PMIDs, then esummary for
// their metadata.
type PubMed struct {
	Transport
	Limit int
	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string
}

func (a *PubMed) Source() types.Source { return types.SourcePubMed }

// Search runs esearch then esummary and returns articles in relevance order.
func (a *PubMed) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {terms},
		"retmax":  {strconv.Itoa(limitOr(a.Limit, a.Source()))},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	a.sign(params)

	var search pubmedSearchResponse
	if err := a.getJSON(ctx, pubmedESearchBase+"?"+params.Encode(), &search); err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}
	ids := search.Result.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	params = url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	a.sign(params)

	var summary pubmedSummaryResponse
	if err := a.getJSON(ctx, pubmedESummaryBase+"?"+params.Encode(), &summary); err != nil {
		return nil, fmt.Errorf("PubMed esummary: %w", err)
	}

	var out []types.Citation
	for _, uid := range summary.Result.UIDs {
		raw, ok := summary.Result.Docs[uid]
		if !ok {
			continue
		}
		var doc pubmedDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			// One malformed summary must not sink the rest.
			continue
		}
		out = append(out, doc.citation())
	}
	return out, nil
}

func (a *PubMed) sign(params url.Values) {
	if a.APIKey != "" {
		params.Set("api_key", a.APIKey)
	}
}

func (d pubmedDoc) citation() types.Citation {
	pmid := clean(d.UID)
	title := strings.TrimSuffix(clean(d.Title), ".")
	c := types.NewCitation(types.SourcePubMed, pmid, title, pubmedArticleBase+pmid+"/")
	if pmid == "" {
		c.URL = ""
	}
	c.Date = types.NormalizeDate(firstNonEmpty(d.PubDate, d.EPubDate, sortDate(d.SortPubDate)))

	extra := &types.Extra{
		Journal: firstNonEmpty(d.FullJournalName, d.Source),
		PMID:    pmid,
	}
	for _, id := range d.ArticleIDs {
		switch strings.ToLower(id.IDType) {
		case "doi":
			extra.DOI = clean(id.Value)
		case "nct":
			extra.NCTID = strings.ToUpper(clean(id.Value))
		}
	}
	extra.Phase, extra.EvidenceTier = pubmedTier(d.PubTypes, title)
	c.Extra = extra
	return c
}

// pubmedTier maps MEDLINE publication types to a trial phase or an
// evidence tier label, falling back to title wording.
func pubmedTier(pubTypes []string, title string) (phase, tier string) {
	for _, pt := range pubTypes {
		l := strings.ToLower(strings.TrimSpace(pt))
		if strings.HasPrefix(l, "clinical trial, phase") {
			if p := NormalizePhase(strings.TrimPrefix(l, "clinical trial, ")); p != "" {
				phase = p
			}
		}
	}
	for _, pt := range pubTypes {
		switch strings.ToLower(strings.TrimSpace(pt)) {
		case "meta-analysis":
			return phase, types.TierLabelMetaAnalysis
		case "systematic review":
			tier = types.TierLabelSystematicReview
		case "review":
			if tier == "" {
				tier = types.TierLabelReview
			}
		}
	}
	if phase == "" {
		phase = phaseFromTitle(title)
	}
	if tier == "" {
		tier = tierFromTitle(title)
	}
	return phase, tier
}

// sortDate turns esummary's "2023/03/15 00:00" into "2023/03/15".
func sortDate(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

// E-utilities JSON structures.
type pubmedSearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummaryResponse struct {
	Result pubmedSummaryResult `json:"result"`
}

// pubmedSummaryResult holds the "uids" array alongside one object per PMID
// keyed by the PMID itself.
type pubmedSummaryResult struct {
	UIDs []string
	Docs map[string]json.RawMessage
}

func (r *pubmedSummaryResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if uids, ok := raw["uids"]; ok {
		if err := json.Unmarshal(uids, &r.UIDs); err != nil {
			return fmt.Errorf("decoding uids: %w", err)
		}
		delete(raw, "uids")
	}
	r.Docs = raw
	return nil
}

type pubmedDoc struct {
	UID             string   `json:"uid"`
	Title           string   `json:"title"`
	PubDate         string   `json:"pubdate"`
	EPubDate        string   `json:"epubdate"`
	SortPubDate     string   `json:"sortpubdate"`
	Source          string   `json:"source"`
	FullJournalName string   `json:"fulljournalname"`
	PubTypes        []string `json:"pubtype"`
	ArticleIDs      []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}
