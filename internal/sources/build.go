// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"fmt"
	"net/http"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// ncbiHost is paced separately: NCBI allows 3 requests per second without
// an API key and 10 with one.
const ncbiHost = "eutils.ncbi.nlm.nih.gov"

// New builds the adapters enabled in cfg, in types.AllSources order. An
// empty cfg.Sources enables every source; an unknown name is an error.
func New(cfg types.ResearchConfig, client *http.Client) ([]Adapter, error) {
	enabled := mapset.NewThreadUnsafeSet[types.Source]()
	for _, name := range cfg.Sources {
		src, err := types.ParseSource(name)
		if err != nil {
			return nil, err
		}
		enabled.Add(src)
	}
	if enabled.Cardinality() == 0 {
		for _, src := range types.AllSources {
			enabled.Add(src)
		}
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	limiter := httputil.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	if cfg.NCBIAPIKey != "" {
		limiter.SetHostRate(ncbiHost, 10, 1)
	} else {
		limiter.SetHostRate(ncbiHost, 3, 1)
	}
	t := Transport{
		Client:     client,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Limiter:    limiter,
	}

	var out []Adapter
	for _, src := range types.AllSources {
		if !enabled.Contains(src) {
			continue
		}
		a, err := newAdapter(src, t, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func newAdapter(src types.Source, t Transport, cfg types.ResearchConfig) (Adapter, error) {
	limit := cfg.LimitFor(src)
	switch src {
	case types.SourceCTGov:
		return &CTGov{Transport: t, Limit: limit}, nil
	case types.SourceCTRI:
		return &CTRI{Transport: t, Limit: limit}, nil
	case types.SourceEUCTR:
		return &EUCTR{Transport: t, Limit: limit}, nil
	case types.SourceISRCTN:
		return &ISRCTN{Transport: t, Limit: limit}, nil
	case types.SourcePubMed:
		return &PubMed{Transport: t, Limit: limit, APIKey: cfg.NCBIAPIKey}, nil
	case types.SourceEuropePMC:
		return &EuropePMC{Transport: t, Limit: limit}, nil
	case types.SourceOpenAlex:
		return &OpenAlex{Transport: t, Limit: limit, Email: cfg.OpenAlexEmail}, nil
	case types.SourceSemanticScholar:
		return &SemanticScholar{Transport: t, Limit: limit, APIKey: cfg.SemanticScholarAPIKey}, nil
	case types.SourceCrossref:
		return &Crossref{Transport: t, Limit: limit, Mailto: cfg.CrossrefMailto}, nil
	}
	return nil, fmt.Errorf("no adapter for source %q", src)
}

// Partition splits adapters into trial registries and literature sources,
// preserving order.
func Partition(adapters []Adapter) (trials, papers []Adapter) {
	for _, a := range adapters {
		if a.Source().Kind() == types.KindTrial {
			trials = append(trials, a)
		} else {
			papers = append(papers, a)
		}
	}
	return trials, papers
}
