// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const ctgovFixture = `{
  "studies": [
    {
      "protocolSection": {
        "identificationModule": {"nctId": "nct01234567", "briefTitle": "Osimertinib in EGFR NSCLC", "officialTitle": "A Phase III Study"},
        "statusModule": {"overallStatus": "RECRUITING", "startDateStruct": {"date": "2024-03"}},
        "designModule": {"phases": ["PHASE2", "PHASE3"]},
        "contactsLocationsModule": {"locations": [
          {"facility": "A", "country": "United States"},
          {"facility": "B", "country": "United States"},
          {"facility": "C", "country": "India"}
        ]}
      }
    },
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT07654321", "briefTitle": ""},
        "statusModule": {"overallStatus": "COMPLETED"}
      }
    }
  ]
}`

func TestCTGov_Search(t *testing.T) {
	var got map[string]string
	serve(t, &ctgovSearchBase, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(ctgovFixture))
	})

	a := &CTGov{Transport: testTransport(), Limit: 7}
	cites, err := a.Search(context.Background(), Query{
		Text: "lung cancer", Genes: []string{"EGFR"}, Recruiting: true,
		Countries: []string{"United States", "India"}, Phase: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "lung cancer EGFR", got["query.term"])
	assert.Equal(t, "7", got["pageSize"])
	assert.Equal(t, "RECRUITING", got["filter.overallStatus"])
	assert.Equal(t, "United States OR India", got["query.locn"])
	assert.Equal(t, "AREA[Phase]PHASE3", got["filter.advanced"])

	// The untitled, completed study fails both the title requirement and
	// the recruiting filter; only the first survives.
	require.Len(t, cites, 1)
	c := cites[0]
	assert.Equal(t, "NCT01234567", c.ID)
	assert.Equal(t, "Osimertinib in EGFR NSCLC", c.Title)
	assert.Equal(t, "https://clinicaltrials.gov/study/NCT01234567", c.URL)
	assert.Equal(t, types.SourceCTGov, c.Source)
	assert.Equal(t, types.KindTrial, c.Kind)
	assert.Equal(t, "2024-03", c.Date)
	require.NotNil(t, c.Extra)
	assert.Equal(t, types.Phase2to3, c.Extra.Phase)
	assert.True(t, c.IsRecruiting())
	assert.Equal(t, []string{"United States", "India"}, c.Extra.Countries)
	assert.Equal(t, "NCT01234567", c.Extra.NCTID)
}

func TestCTGov_StatusFilterWinsOverRecruiting(t *testing.T) {
	var status string
	serve(t, &ctgovSearchBase, func(w http.ResponseWriter, r *http.Request) {
		status = r.URL.Query().Get("filter.overallStatus")
		w.Write([]byte(`{"studies": []}`))
	})
	a := &CTGov{Transport: testTransport()}
	cites, err := a.Search(context.Background(), Query{Text: "asthma", Status: "active, not recruiting"})
	require.NoError(t, err)
	assert.Empty(t, cites)
	assert.Equal(t, "ACTIVE_NOT_RECRUITING", status)
}

func TestCTGov_UnfilteredKeepsEveryTitledStudy(t *testing.T) {
	serve(t, &ctgovSearchBase, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("filter.overallStatus"))
		w.Write([]byte(ctgovFixture))
	})
	out := Fetch(context.Background(), &CTGov{Transport: testTransport()}, Query{Text: "lung cancer"})
	require.NoError(t, out.Err)
	assert.Len(t, out.Citations, 1)
}

func TestCTGov_EmptyQuery(t *testing.T) {
	_, err := (&CTGov{Transport: testTransport()}).Search(context.Background(), Query{})
	assert.Error(t, err)
}

func TestCTGov_FilterOnlyOmitsTerm(t *testing.T) {
	var got url.Values
	serve(t, &ctgovSearchBase, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"studies":[]}`))
	})

	cites, err := (&CTGov{Transport: testTransport()}).Search(context.Background(), Query{
		Phase: 3, Countries: []string{"India"},
	})
	require.NoError(t, err)
	assert.Empty(t, cites)

	assert.False(t, got.Has("query.term"))
	assert.Equal(t, "AREA[Phase]PHASE3", got.Get("filter.advanced"))
	assert.Equal(t, "India", got.Get("query.locn"))
}
