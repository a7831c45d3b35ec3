// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const isrctnFixture = `<?xml version="1.0" encoding="UTF-8"?>
<allTrials xmlns="http://www.67bricks.com/isrctn" totalCount="2">
  <fullTrial>
    <trial lastUpdated="2024-01-10T10:00:00.000Z">
      <isrctn dateAssigned="2023-06-01T00:00:00.000Z">12345678</isrctn>
      <trialDescription>
        <title>Exercise after knee replacement</title>
        <scientificTitle>A randomised controlled trial of exercise</scientificTitle>
      </trialDescription>
      <externalRefs>
        <doi>10.1186/ISRCTN12345678</doi>
        <clinicalTrialsGovNumber>NCT04444444</clinicalTrialsGovNumber>
      </externalRefs>
      <trialDesign><phase>Phase III</phase></trialDesign>
      <participants>
        <recruitmentStart>2023-07-01T00:00:00.000Z</recruitmentStart>
        <recruitmentEnd>2025-12-31T00:00:00.000Z</recruitmentEnd>
        <countries><country>United Kingdom</country></countries>
        <trialCentres>
          <trialCentre><name>Leeds</name><country>England</country></trialCentre>
        </trialCentres>
      </participants>
    </trial>
  </fullTrial>
  <fullTrial>
    <trial>
      <isrctn dateAssigned="2015-02-01T00:00:00.000Z">ISRCTN87654321</isrctn>
      <trialDescription><title>Vitamin D in pregnancy</title></trialDescription>
      <trialDesign><phase>Not Applicable</phase></trialDesign>
      <participants>
        <recruitmentStart>2015-03-01T00:00:00.000Z</recruitmentStart>
        <recruitmentEnd>2016-03-01T00:00:00.000Z</recruitmentEnd>
        <recruitmentStatusOverride>Stopped</recruitmentStatusOverride>
      </participants>
    </trial>
  </fullTrial>
</allTrials>`

func TestISRCTN_Search(t *testing.T) {
	old := now
	now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { now = old }()

	var q string
	serve(t, &isrctnSearchBase, func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(isrctnFixture))
	})

	cites, err := (&ISRCTN{Transport: testTransport()}).Search(context.Background(), Query{Text: "knee"})
	require.NoError(t, err)
	assert.Equal(t, "knee", q)
	require.Len(t, cites, 2)

	c := cites[0]
	assert.Equal(t, "ISRCTN12345678", c.ID)
	assert.Equal(t, "https://www.isrctn.com/ISRCTN12345678", c.URL)
	assert.Equal(t, "Exercise after knee replacement", c.Title)
	assert.Equal(t, "2023-06-01", c.Date)
	assert.Equal(t, types.Phase3, c.Extra.Phase)
	assert.Equal(t, "Recruiting", c.Extra.Status)
	assert.True(t, c.IsRecruiting())
	assert.Equal(t, []string{"United Kingdom"}, c.Extra.Countries)
	assert.Equal(t, "NCT04444444", c.Extra.NCTID)
	assert.Equal(t, "10.1186/ISRCTN12345678", c.Extra.DOI)

	stopped := cites[1]
	assert.Equal(t, "ISRCTN87654321", stopped.ID)
	assert.Equal(t, "Stopped", stopped.Extra.Status)
	assert.False(t, stopped.IsRecruiting())
}

func TestISRCTN_AcceptsJSON(t *testing.T) {
	serve(t, &isrctnSearchBase, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"trials": [{"trial": {
			"isrctn": {"number": "11112222", "dateAssigned": "2020-01-01"},
			"trialDescription": {"title": "JSON trial"},
			"participants": {"recruitmentStatusOverride": "Recruiting"}
		}}]}`))
	})
	cites, err := (&ISRCTN{Transport: testTransport()}).Search(context.Background(), Query{Text: "x"})
	require.NoError(t, err)
	require.Len(t, cites, 1)
	assert.Equal(t, "ISRCTN11112222", cites[0].ID)
	assert.True(t, cites[0].IsRecruiting())
}

func TestRecruitmentWindow(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		start, end string
		wantStatus string
		want       *bool
	}{
		{"no dates", "", "", "", nil},
		{"future", "2024-09-01", "2025-01-01", "Not yet recruiting", types.Bool(false)},
		{"open", "2024-01-01", "2024-12-31", "Recruiting", types.Bool(true)},
		{"open ended", "2024-01-01", "", "Recruiting", types.Bool(true)},
		{"ended", "2020-01-01", "2021-01-01", "Recruitment complete", types.Bool(false)},
		{"ends today", "2024-01-01", "2024-06-01", "Recruiting", types.Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, rec := recruitmentWindow(tt.start, tt.end, today)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.want, rec)
		})
	}
}
