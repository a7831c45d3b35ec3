// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2023-05-14", "2023-05-14"},
		{"2023-05-14T08:00:00Z", "2023-05-14"},
		{"2023-05-14T08:00:00.000Z", "2023-05-14"},
		{"2023-05", "2023-05"},
		{"2023", "2023"},
		{"2023 Mar 15", "2023-03-15"},
		{"2023 Mar", "2023-03"},
		{"2023 Spring", "2023"},
		{"2023 Mar-Apr", "2023"},
		{"2023/03/15", "2023-03-15"},
		{"15/03/2023", "2023-03-15"},
		{"15-03-2023", "2023-03-15"},
		{"March 15, 2023", "2023-03-15"},
		{"March 2023", "2023-03"},
		{"15 March 2023", "2023-03-15"},
		{"", ""},
		{"unknown", ""},
		{"20230", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.raw))
		})
	}
}

func TestParseDatePeriodEnd(t *testing.T) {
	p, ok := ParseDate("2023")
	require.True(t, ok)
	assert.Equal(t, PrecisionYear, p.Precision)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, 2023, p.End.Year())
	assert.Equal(t, time.December, p.End.Month())
	assert.Equal(t, 31, p.End.Day())

	p, ok = ParseDate("2024-02")
	require.True(t, ok)
	assert.Equal(t, 29, p.End.Day())
}
