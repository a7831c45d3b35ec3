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

// euctrSearchBase is the EU Clinical Trials Register search endpoint.
var euctrSearchBase = "https://www.clinicaltrialsregister.eu/ctr-search/rest/search"

// euctrTrialBase prefixes a EudraCT number to form the public trial page.
var euctrTrialBase = "https://www.clinicaltrialsregister.eu/ctr-search/search?query="

// EUCTR queries the EU Clinical Trials Register. Like CTRI it cannot filter
// server-side.
type EUCTR struct {
	Transport
	Limit int
}

func (a *EUCTR) Source() types.Source { return types.SourceEUCTR }

// Search queries EUCTR and decodes either a JSON or an XML body.
func (a *EUCTR) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty EUCTR query")
	}
	params := url.Values{
		"query":    {terms},
		"pageSize": {strconv.Itoa(limitOr(a.Limit, a.Source()))},
	}
	records, err := searchRegistry(ctx, a.Transport, euctrSearchBase, params)
	if err != nil {
		return nil, fmt.Errorf("EUCTR: %w", err)
	}

	pageURL := func(id string) string { return euctrTrialBase + url.QueryEscape(id) }
	var out []types.Citation
	for _, r := range records {
		c := r.citation(a.Source(), pageURL, euctrCountry)
		if q.Filtered() && !q.admits(c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// euctrCountry strips the competent authority EUCTR appends to each member
// state ("Germany - BfArM" becomes "Germany").
func euctrCountry(raw string) string {
	if i := strings.Index(raw, " - "); i >= 0 {
		raw = raw[:i]
	}
	return clean(raw)
}
