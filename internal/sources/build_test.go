// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestNew_AllSourcesByDefault(t *testing.T) {
	cfg := types.DefaultAppConfig().Research
	adapters, err := New(cfg, nil)
	require.NoError(t, err)
	require.Len(t, adapters, len(types.AllSources))
	for i, a := range adapters {
		assert.Equal(t, types.AllSources[i], a.Source())
	}

	trials, papers := Partition(adapters)
	assert.Len(t, trials, 4)
	assert.Len(t, papers, 5)
}

func TestNew_SelectsAndConfigures(t *testing.T) {
	cfg := types.DefaultAppConfig().Research
	cfg.Sources = []string{"Semantic_Scholar", "ctgov", "PUBMED", "ctgov"}
	cfg.Limits = map[string]int{"ctgov": 2, "pubmed": 30}
	cfg.SemanticScholarAPIKey = "s2"
	cfg.NCBIAPIKey = "ncbi"

	adapters, err := New(cfg, nil)
	require.NoError(t, err)
	require.Len(t, adapters, 3)

	ct, ok := adapters[0].(*CTGov)
	require.True(t, ok)
	assert.Equal(t, types.MinSourceLimit, ct.Limit)

	pm, ok := adapters[1].(*PubMed)
	require.True(t, ok)
	assert.Equal(t, 30, pm.Limit)
	assert.Equal(t, "ncbi", pm.APIKey)

	s2, ok := adapters[2].(*SemanticScholar)
	require.True(t, ok)
	assert.Equal(t, "s2", s2.APIKey)
	assert.Equal(t, cfg.UserAgent, s2.UserAgent)
	assert.NotNil(t, s2.Limiter)
}

func TestNew_UnknownSource(t *testing.T) {
	cfg := types.DefaultAppConfig().Research
	cfg.Sources = []string{"scopus"}
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
