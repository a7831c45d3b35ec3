// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// registryTrial is the record shape shared by the CTRI and EUCTR search
// endpoints. Both serve it as JSON ({"trials": [...]}) or XML
// (<trials><trial>...</trial></trials>) depending on content negotiation.
type registryTrial struct {
	ID           string   `json:"id" xml:"id"`
	Title        string   `json:"title" xml:"title"`
	PublicTitle  string   `json:"publicTitle" xml:"public_title"`
	URL          string   `json:"url" xml:"url"`
	Phase        string   `json:"phase" xml:"phase"`
	Status       string   `json:"status" xml:"status"`
	Countries    []string `json:"countries" xml:"countries>country"`
	Registered   string   `json:"dateRegistered" xml:"date_registered"`
	SecondaryIDs []string `json:"secondaryIds" xml:"secondary_ids>id"`
}

type registryJSON struct {
	Trials []registryTrial `json:"trials"`
}

type registryXML struct {
	XMLName xml.Name        `xml:"trials"`
	Trials  []registryTrial `xml:"trial"`
}

// searchRegistry runs one request against a CTRI/EUCTR style endpoint and
// returns the raw records in upstream order.
func searchRegistry(ctx context.Context, t Transport, base string, params url.Values) ([]registryTrial, error) {
	body, err := t.get(ctx, base+"?"+params.Encode(), "application/json, application/xml;q=0.9")
	if err != nil {
		return nil, err
	}
	var (
		asJSON registryJSON
		asXML  registryXML
	)
	format, err := decodeJSONOrXML(body, &asJSON, &asXML)
	if err != nil {
		return nil, err
	}
	if format == formatXML {
		return asXML.Trials, nil
	}
	return asJSON.Trials, nil
}

// citation converts a shared registry record. countryOf trims a registry's
// decoration from country entries.
func (r registryTrial) citation(src types.Source, pageURL func(id string) string, countryOf func(string) string) types.Citation {
	id := clean(r.ID)
	link := clean(r.URL)
	if link == "" && id != "" {
		link = pageURL(id)
	}
	c := types.NewCitation(src, id, firstNonEmpty(r.PublicTitle, r.Title), link)
	c.Date = types.NormalizeDate(r.Registered)

	countries := make([]string, 0, len(r.Countries))
	for _, raw := range r.Countries {
		countries = append(countries, countryOf(raw))
	}
	status := clean(r.Status)
	c.Extra = &types.Extra{
		Phase:      NormalizePhase(r.Phase),
		Status:     status,
		Recruiting: recruitingFromStatus(status),
		Countries:  dedupCountries(countries),
		NCTID:      nctIn(r.SecondaryIDs),
	}
	return c
}

// nctIn returns the first ClinicalTrials.gov identifier among ids, so a
// trial cross-registered in two places collapses during deduplication.
func nctIn(ids []string) string {
	for _, id := range ids {
		id = strings.ToUpper(clean(id))
		if isNCTID(id) {
			return id
		}
	}
	return ""
}

// isNCTID reports whether s looks like "NCT" followed by eight digits.
func isNCTID(s string) bool {
	if len(s) != 11 || !strings.HasPrefix(s, "NCT") {
		return false
	}
	for i := 3; i < len(s); i++ {
		if !isDigitByte(s[i]) {
			return false
		}
	}
	return true
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }
