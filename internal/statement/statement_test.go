package statement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatAuto},
		{"AUTO", FormatAuto},
		{"generic", FormatGeneric},
		{"csv", FormatGeneric},
		{" ibkr ", FormatIBKR},
		{"ibkr_statement", FormatIBKRStatement},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("ofx")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatGeneric, Detect("date,symbol,type,quantity,price\n2025-01-01,A,long,1,1"))
	assert.Equal(t, FormatIBKR, Detect("Statement,Header\n  Trades,Data,Order,USD,A"))
}

func TestParse_AutoResolves(t *testing.T) {
	trades, f, err := Parse("h\n2025-01-01,A,long,1,1", FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, FormatGeneric, f)
	assert.Len(t, trades, 1)

	_, _, err = Parse("x", Format("qif"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
