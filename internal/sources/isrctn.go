// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// isrctnSearchBase is the ISRCTN registry query endpoint.
var isrctnSearchBase = "https://www.isrctn.com/api/query/format/default"

// isrctnTrialBase prefixes an ISRCTN number to form the public trial page.
var isrctnTrialBase = "https://www.isrctn.com/"

// now is swapped by tests that depend on recruitment windows.
var now = time.Now

// ISRCTN queries the ISRCTN registry. Its recruitment status is usually
// implied by the recruitment start and end dates rather than stated.
type ISRCTN struct {
	Transport
	Limit int
}

func (a *ISRCTN) Source() types.Source { return types.SourceISRCTN }

// Search queries ISRCTN. The API answers in XML by default; a JSON body is
// accepted too.
func (a *ISRCTN) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty ISRCTN query")
	}
	params := url.Values{
		"q":     {terms},
		"limit": {strconv.Itoa(limitOr(a.Limit, a.Source()))},
	}
	body, err := a.get(ctx, isrctnSearchBase+"?"+params.Encode(), "application/xml")
	if err != nil {
		return nil, fmt.Errorf("ISRCTN: %w", err)
	}

	var (
		asJSON isrctnResults
		asXML  isrctnResults
	)
	format, err := decodeJSONOrXML(body, &asJSON, &asXML)
	if err != nil {
		return nil, fmt.Errorf("ISRCTN: %w", err)
	}
	results := asJSON
	if format == formatXML {
		results = asXML
	}

	today := now()
	var out []types.Citation
	for _, ft := range results.Trials {
		c := ft.Trial.citation(today)
		if q.Filtered() && !q.admits(c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (t isrctnTrial) citation(today time.Time) types.Citation {
	num := clean(t.ISRCTN.Number)
	id := num
	if id != "" && !strings.HasPrefix(strings.ToUpper(id), "ISRCTN") {
		id = "ISRCTN" + id
	}
	link := ""
	if id != "" {
		link = isrctnTrialBase + id
	}
	c := types.NewCitation(types.SourceISRCTN, id,
		firstNonEmpty(t.Description.Title, t.Description.ScientificTitle), link)
	c.Date = types.NormalizeDate(firstNonEmpty(t.ISRCTN.DateAssigned, t.Participants.RecruitmentStart))

	status := firstNonEmpty(t.Participants.RecruitmentStatusOverride, t.Design.OverallStatusOverride)
	recruiting := recruitingFromStatus(status)
	if status == "" {
		status, recruiting = recruitmentWindow(t.Participants.RecruitmentStart, t.Participants.RecruitmentEnd, today)
	}

	countries := append([]string(nil), t.Participants.Countries...)
	for _, centre := range t.Participants.TrialCentres {
		countries = append(countries, centre.Country)
	}
	c.Extra = &types.Extra{
		Phase:      NormalizePhase(t.Design.Phase),
		Status:     status,
		Recruiting: recruiting,
		Countries:  dedupCountries(countries),
		NCTID:      nctIn([]string{t.ExternalRefs.ClinicalTrialsGovNumber}),
		DOI:        clean(t.ExternalRefs.DOI),
	}
	return c
}

// recruitmentWindow derives a status from the stated recruitment dates. An
// open-ended window that has started counts as recruiting.
func recruitmentWindow(start, end string, today time.Time) (string, *bool) {
	s, okStart := types.ParseDate(start)
	if !okStart {
		return "", nil
	}
	if today.Before(s.Start) {
		return "Not yet recruiting", types.Bool(false)
	}
	e, okEnd := types.ParseDate(end)
	if okEnd && today.After(e.End) {
		return "Recruitment complete", types.Bool(false)
	}
	return "Recruiting", types.Bool(true)
}

// ISRCTN JSON/XML structures. Element names match the registry's XML;
// namespaces are ignored by encoding/xml when only local names are given.
type isrctnResults struct {
	XMLName xml.Name          `json:"-" xml:"allTrials"`
	Trials  []isrctnFullTrial `json:"trials" xml:"fullTrial"`
}

type isrctnFullTrial struct {
	Trial isrctnTrial `json:"trial" xml:"trial"`
}

type isrctnTrial struct {
	ISRCTN struct {
		Number       string `json:"number" xml:",chardata"`
		DateAssigned string `json:"dateAssigned" xml:"dateAssigned,attr"`
	} `json:"isrctn" xml:"isrctn"`
	Description struct {
		Title           string `json:"title" xml:"title"`
		ScientificTitle string `json:"scientificTitle" xml:"scientificTitle"`
	} `json:"trialDescription" xml:"trialDescription"`
	ExternalRefs struct {
		DOI                     string `json:"doi" xml:"doi"`
		ClinicalTrialsGovNumber string `json:"clinicalTrialsGovNumber" xml:"clinicalTrialsGovNumber"`
	} `json:"externalRefs" xml:"externalRefs"`
	Design struct {
		Phase                 string `json:"phase" xml:"phase"`
		OverallStatusOverride string `json:"overallStatusOverride" xml:"overallStatusOverride"`
	} `json:"trialDesign" xml:"trialDesign"`
	Participants struct {
		RecruitmentStart          string   `json:"recruitmentStart" xml:"recruitmentStart"`
		RecruitmentEnd            string   `json:"recruitmentEnd" xml:"recruitmentEnd"`
		RecruitmentStatusOverride string   `json:"recruitmentStatusOverride" xml:"recruitmentStatusOverride"`
		Countries                 []string `json:"countries" xml:"countries>country"`
		TrialCentres              []struct {
			Name    string `json:"name" xml:"name"`
			Country string `json:"country" xml:"country"`
		} `json:"trialCentres" xml:"trialCentres>trialCentre"`
	} `json:"participants" xml:"participants"`
}
