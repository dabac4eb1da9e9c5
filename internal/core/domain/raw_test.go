package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		want int64
	}{
		{name: "zero", ts: 0, want: 0},
		{name: "seconds stay", ts: 1_700_000_000, want: 1_700_000_000},
		{name: "just under the threshold", ts: 999_999_999_999, want: 999_999_999_999},
		{name: "at the threshold", ts: 1_000_000_000_000, want: 1_000_000_000},
		{name: "milliseconds convert", ts: 1_700_000_000_123, want: 1_700_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTimestamp(tt.ts))
		})
	}
}
