package domain

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeTotal(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		fuel     string
		handling string
		want     string
	}{
		{name: "exact cents", base: "20.00", fuel: "5.0", handling: "2.50", want: "22.50"},
		{name: "no surcharge", base: "12.34", fuel: "0", handling: "0", want: "12.34"},
		{name: "rounds half up", base: "10.10", fuel: "5", handling: "0", want: "10.61"}, // 10.605
		{name: "rounds down below half", base: "10.02", fuel: "12.5", handling: "1", want: "12.27"}, // 12.2725
		{name: "large fuel surcharge", base: "100", fuel: "18.75", handling: "3.99", want: "122.74"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, breakdown := ComposeTotal(
				decimal.RequireFromString(tt.base),
				decimal.RequireFromString(tt.fuel),
				decimal.RequireFromString(tt.handling),
			)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(total), "got %s", total)
			assert.Equal(t, tt.want, total.StringFixed(2))
			assert.True(t, breakdown.HandlingFee.Equal(RoundCurrency(decimal.RequireFromString(tt.handling))))
		})
	}
}

func TestComposeTotal_NoDriftOverManyCalls(t *testing.T) {
	want := decimal.RequireFromString("22.50")
	for i := 0; i < 1000; i++ {
		total, _ := ComposeTotal(decimal.RequireFromString("20.00"), decimal.RequireFromString("5.0"), decimal.RequireFromString("2.50"))
		require.True(t, want.Equal(total), "iteration %d: %s", i, total)
	}
}

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"us", "US", true},
		{" jp ", "JP", true},
		{"KR", "KR", true},
		{"USA", "USA", false},
		{"", "", false},
		{"1A", "1A", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, ok := NormalizeCountry(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestRateContains(t *testing.T) {
	r := Rate{WeightMinKg: decimal.RequireFromString("0.5"), WeightMaxKg: decimal.RequireFromString("1.0")}
	assert.True(t, r.Contains(decimal.RequireFromString("0.5")))
	assert.True(t, r.Contains(decimal.RequireFromString("0.75")))
	assert.True(t, r.Contains(decimal.RequireFromString("1.0")))
	assert.False(t, r.Contains(decimal.RequireFromString("1.01")))
	assert.False(t, r.Contains(decimal.RequireFromString("0.49")))
}

func TestIsNoMatch(t *testing.T) {
	assert.True(t, IsNoMatch(fmt.Errorf("carrier 3: %w", ErrRateNotFound)))
	assert.True(t, IsNoMatch(ErrZoneNotFound))
	assert.True(t, IsNoMatch(ErrPolicyNotFound))
	assert.False(t, IsNoMatch(ErrDataStoreUnavailable))
	assert.False(t, IsNoMatch(ErrInvalidInput))
}
