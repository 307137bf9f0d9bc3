package zksync_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/zksync"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"1000000000000000000", 18, "1.0"},
		{"6000000000000000000", 18, "6.0"},
		{"24000000000000000", 18, "0.024"},
		{"1000", 18, "0.000000000000001"},
		{"0", 18, "0.0"},
		{"1500000", 6, "1.5"},
		{"1000", 0, "1000.0"},
	}

	for _, tt := range tests {
		amount, ok := new(big.Int).SetString(tt.amount, 10)
		require.True(t, ok)
		assert.Equal(t, tt.want, zksync.FormatUnits(amount, tt.decimals), tt.amount)
	}
}

func TestParseUnits(t *testing.T) {
	v, err := zksync.ParseUnits("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = zksync.ParseUnits("42", 6)
	require.NoError(t, err)
	assert.Equal(t, "42000000", v.String())

	_, err = zksync.ParseUnits("0.1234567", 6)
	require.Error(t, err)

	_, err = zksync.ParseUnits("abc", 6)
	require.Error(t, err)
}

func TestParseUnitsFormatUnitsRoundTrip(t *testing.T) {
	for _, s := range []string{"1.0", "0.024", "123.456"} {
		v, err := zksync.ParseUnits(s, 18)
		require.NoError(t, err)
		assert.Equal(t, s, zksync.FormatUnits(v, 18))
	}
}
