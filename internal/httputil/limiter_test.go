// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter_DefaultBurst(t *testing.T) {
	l := NewLimiter(10, -1)
	assert.Equal(t, 5, l.defaultBurst)
}

func TestLimiter_PerHostBuckets(t *testing.T) {
	// 1 rps, burst 1: a second request to the same host must wait, a request
	// to another host must not.
	l := NewLimiter(1, 1)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "eutils.ncbi.nlm.nih.gov"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "api.openalex.org"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(short, "eutils.ncbi.nlm.nih.gov"))
}

func TestLimiter_ZeroRateDisablesPacing(t *testing.T) {
	l := NewLimiter(0, 1)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 20; i++ {
		require.NoError(t, l.Wait(ctx, "api.crossref.org"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_SetHostRate(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetHostRate("eutils.ncbi.nlm.nih.gov", 1000, 10)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx, "eutils.ncbi.nlm.nih.gov"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
