// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package followup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestParseAudience(t *testing.T) {
	tests := []struct {
		in      string
		want    Audience
		wantErr bool
	}{
		{"", AudiencePatient, false},
		{"Patient", AudiencePatient, false},
		{" doctor ", AudienceDoctor, false},
		{"clinician", AudienceDoctor, false},
		{"nurse", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAudience(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplates_Suggest(t *testing.T) {
	ctx := context.Background()
	trial := types.NewCitation(types.SourceCTGov, "NCT00000001", "A trial", "https://clinicaltrials.gov/study/NCT00000001")
	trial.Extra = &types.Extra{Recruiting: types.Bool(true)}

	qs, err := Templates{}.Suggest(ctx, "  breast   cancer ", AudiencePatient, nil)
	require.NoError(t, err)
	require.Len(t, qs, MaxQuestions)
	assert.Contains(t, qs[0], "treatment options exist for breast cancer")

	qs, err = Templates{}.Suggest(ctx, "breast cancer", AudiencePatient, []types.Citation{trial})
	require.NoError(t, err)
	assert.Contains(t, qs[0], "eligible")

	qs, err = Templates{}.Suggest(ctx, "breast cancer", AudienceDoctor, []types.Citation{trial})
	require.NoError(t, err)
	require.Len(t, qs, MaxQuestions)
	assert.Contains(t, qs[0], "inclusion criteria")
}

func TestTemplates_EmptyTopic(t *testing.T) {
	qs, err := Templates{}.Suggest(context.Background(), " ", AudienceDoctor, nil)
	require.NoError(t, err)
	assert.NotNil(t, qs)
	assert.Empty(t, qs)
}
