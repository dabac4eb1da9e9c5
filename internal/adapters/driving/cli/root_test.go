package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "chatlens", rootCmd.Use)
}

func TestRootCmd_Short(t *testing.T) {
	assert.Equal(t, "Chat archive analytics", rootCmd.Short)
}

func TestRootCmd_HasDataDirFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("data-dir")
	require.NotNil(t, flag, "data-dir flag should exist")
	assert.Equal(t, "", flag.DefValue)
}

func TestRootCmd_HasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag, "verbose flag should exist")
	assert.Equal(t, "v", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
}

func TestParseTimeFlag(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{
			name:  "Empty means unbounded",
			value: "",
			want:  0,
		},
		{
			name:  "Raw unix seconds",
			value: "1700000000",
			want:  1700000000,
		},
		{
			name:  "Date",
			value: "2024-03-01",
			want:  1709251200,
		},
		{
			name:  "Date and time",
			value: "2024-03-01 12:30:00",
			want:  1709296200,
		},
		{
			name:  "RFC3339",
			value: "2024-03-01T12:30:00Z",
			want:  1709296200,
		},
		{
			name:    "Unrecognised text",
			value:   "next tuesday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := parseTimeFlag(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts)
		})
	}
}

func TestRangeFromFlags_BothEmpty(t *testing.T) {
	r, err := rangeFromFlags("", "")

	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestRangeFromFlags_FromOnly(t *testing.T) {
	r, err := rangeFromFlags("100", "")

	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, &domain.TimeRange{From: 100}, r)
}

func TestRangeFromFlags_ToOnly(t *testing.T) {
	r, err := rangeFromFlags("", "2024-03-01")

	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, &domain.TimeRange{To: 1709251200}, r)
}

func TestRangeFromFlags_Both(t *testing.T) {
	r, err := rangeFromFlags("100", "200")

	require.NoError(t, err)
	assert.Equal(t, &domain.TimeRange{From: 100, To: 200}, r)
}

func TestRangeFromFlags_BadFrom(t *testing.T) {
	_, err := rangeFromFlags("whenever", "200")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRangeFromFlags_BadTo(t *testing.T) {
	_, err := rangeFromFlags("100", "whenever")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFormatTs(t *testing.T) {
	assert.Equal(t, "1970-01-01 00:00:00", formatTs(0))
	assert.Equal(t, "2024-03-01 12:30:00", formatTs(1709296200))
}

func TestProgressPrinter_NilWhenNotTerminal(t *testing.T) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		t.Skip("stdout is a terminal")
	}

	assert.Nil(t, progressPrinter(rootCmd))
}
