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

// ctgovSearchBase is the ClinicalTrials.gov v2 studies endpoint. Declared as
// a var so tests can substitute an httptest server.
var ctgovSearchBase = "https://clinicaltrials.gov/api/v2/studies"

// ctgovStudyBase prefixes an NCT ID to form the public study page.
var ctgovStudyBase = "https://clinicaltrials.gov/study/"

// CTGov queries ClinicalTrials.gov. It is the only registry whose API
// filters by status, location, and phase server-side.
type CTGov struct {
	Transport
	Limit int
}

func (a *CTGov) Source() types.Source { return types.SourceCTGov }

// Search queries the v2 studies API.
func (a *CTGov) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" && !q.Filtered() {
		return nil, fmt.Errorf("empty ClinicalTrials.gov query")
	}

	// The v2 API accepts filter-only searches, so query.term is optional.
	params := url.Values{
		"pageSize": {strconv.Itoa(limitOr(a.Limit, a.Source()))},
		"format":   {"json"},
	}
	if terms != "" {
		params.Set("query.term", terms)
	}
	switch {
	case q.Status != "":
		params.Set("filter.overallStatus", strings.ToUpper(strings.ReplaceAll(normalizeStatus(q.Status), " ", "_")))
	case q.Recruiting:
		params.Set("filter.overallStatus", "RECRUITING")
	}
	if len(q.Countries) > 0 {
		params.Set("query.locn", strings.Join(q.Countries, " OR "))
	}
	if q.Phase > 0 {
		params.Set("filter.advanced", fmt.Sprintf("AREA[Phase]PHASE%d", q.Phase))
	}

	var resp ctgovResponse
	if err := a.getJSON(ctx, ctgovSearchBase+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov: %w", err)
	}

	var out []types.Citation
	for _, st := range resp.Studies {
		c := st.citation()
		if q.Filtered() && !q.admits(c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (st ctgovStudy) citation() types.Citation {
	p := st.ProtocolSection
	id := strings.ToUpper(strings.TrimSpace(p.Identification.NCTID))
	c := types.NewCitation(types.SourceCTGov, id,
		firstNonEmpty(p.Identification.BriefTitle, p.Identification.OfficialTitle),
		"")
	if id != "" {
		c.URL = ctgovStudyBase + id
	}
	c.Date = types.NormalizeDate(firstNonEmpty(
		p.Status.StartDate.Date,
		p.Status.FirstSubmitDate,
		p.Status.LastUpdatePostDate.Date,
	))

	var countries []string
	for _, loc := range p.ContactsLocations.Locations {
		countries = append(countries, loc.Country)
	}
	c.Extra = &types.Extra{
		Phase:      NormalizePhase(strings.Join(p.Design.Phases, ",")),
		Status:     p.Status.OverallStatus,
		Recruiting: recruitingFromStatus(p.Status.OverallStatus),
		Countries:  dedupCountries(countries),
		NCTID:      id,
	}
	return c
}

// ClinicalTrials.gov v2 JSON structures.
type ctgovResponse struct {
	Studies       []ctgovStudy `json:"studies"`
	NextPageToken string       `json:"nextPageToken"`
}

type ctgovStudy struct {
	ProtocolSection struct {
		Identification struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		Status struct {
			OverallStatus      string    `json:"overallStatus"`
			StartDate          ctgovDate `json:"startDateStruct"`
			FirstSubmitDate    string    `json:"studyFirstSubmitDate"`
			LastUpdatePostDate ctgovDate `json:"lastUpdatePostDateStruct"`
		} `json:"statusModule"`
		Design struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		ContactsLocations struct {
			Locations []struct {
				Facility string `json:"facility"`
				City     string `json:"city"`
				Country  string `json:"country"`
			} `json:"locations"`
		} `json:"contactsLocationsModule"`
	} `json:"protocolSection"`
}

type ctgovDate struct {
	Date string `json:"date"`
}
