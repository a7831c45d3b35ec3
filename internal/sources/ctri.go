// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// ctriSearchBase is the Clinical Trials Registry - India search endpoint.
var ctriSearchBase = "https://ctri.nic.in/Clinicaltrials/api/search"

// ctriTrialBase prefixes a CTRI number to form the public trial page.
var ctriTrialBase = "https://ctri.nic.in/Clinicaltrials/pmaindet2.php?trialid="

// CTRI queries the Clinical Trials Registry - India. The registry has no
// server-side filters, so strict searches filter the returned page.
type CTRI struct {
	Transport
	Limit int
}

func (a *CTRI) Source() types.Source { return types.SourceCTRI }

// Search queries CTRI and decodes either a JSON or an XML body.
func (a *CTRI) Search(ctx context.Context, q Query) ([]types.Citation, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty CTRI query")
	}
	params := url.Values{
		"query": {terms},
		"limit": {strconv.Itoa(limitOr(a.Limit, a.Source()))},
	}
	records, err := searchRegistry(ctx, a.Transport, ctriSearchBase, params)
	if err != nil {
		return nil, fmt.Errorf("CTRI: %w", err)
	}

	pageURL := func(id string) string { return ctriTrialBase + url.QueryEscape(id) }
	var out []types.Citation
	for _, r := range records {
		c := r.citation(a.Source(), pageURL, clean)
		if q.Filtered() && !q.admits(c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
