// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.AuditConfig{Path: filepath.Join(t.TempDir(), "nested", "audit.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	c1 := types.NewCitation(types.SourceCTGov, "NCT00000001", "ctgov:NCT00000001 — Trial", "https://clinicaltrials.gov/study/NCT00000001")
	c1.Extra = &types.Extra{Phase: types.Phase2, Recruiting: types.Bool(true)}
	c2 := types.NewCitation(types.SourcePubMed, "123", "Paper", "https://pubmed.ncbi.nlm.nih.gov/123/")
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.Record(ctx, Run{
		Kind:      "bundle",
		Query:     "Asthma in children",
		Filters:   map[string]string{"countries": "India"},
		StartedAt: started,
		TookMs:    1234,
		Widened:   true,
		Failed:    []string{"ctri", "euctr"},
		Citations: []types.Citation{c1, c2},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bundle", run.Kind)
	assert.Equal(t, "Asthma in children", run.Query)
	assert.Equal(t, map[string]string{"countries": "India"}, run.Filters)
	assert.True(t, run.StartedAt.Equal(started))
	assert.Equal(t, int64(1234), run.TookMs)
	assert.True(t, run.Widened)
	assert.Equal(t, []string{"ctri", "euctr"}, run.Failed)
	assert.Equal(t, 2, run.Count)
	assert.Equal(t, []types.Citation{c1, c2}, run.Citations)
}

func TestGet_NotFound(t *testing.T) {
	_, err := testStore(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, q := range []string{"asthma", "melanoma BRAF", "Severe asthma"} {
		_, err := s.Record(ctx, Run{Kind: "trials", Query: q, StartedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	runs, err := s.Recent(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "Severe asthma", runs[0].Query)
	assert.Equal(t, "asthma", runs[2].Query)
	assert.Nil(t, runs[0].Citations)
	assert.Nil(t, runs[0].Failed)

	runs, err = s.Recent(ctx, 10, "ASTHMA")
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = s.Recent(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecord_DuplicateID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Record(ctx, Run{ID: "fixed", Kind: "bundle", Query: "x"})
	require.NoError(t, err)
	_, err = s.Record(ctx, Run{ID: "fixed", Kind: "bundle", Query: "x"})
	assert.Error(t, err)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(types.AuditConfig{})
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := Open(types.AuditConfig{Path: path})
	require.NoError(t, err)
	_, err = s.Record(context.Background(), Run{Kind: "bundle", Query: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(types.AuditConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Recent(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
