package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundHalfUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact", "100.125", "100.125"},
		{"tie rounds up", "1.0005", "1.001"},
		{"below tie", "1.00049", "1"},
		{"negative tie", "-1.0005", "-1.001"},
		{"integer", "42", "42"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RoundHalfUp(decimal.RequireFromString(tt.in), SettlementPlaces)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestNotional(t *testing.T) {
	t.Parallel()

	got := Notional(decimal.RequireFromString("100.00"), 5)
	assert.Equal(t, "500", got.String())

	got = Notional(decimal.RequireFromString("0.3335"), 3)
	assert.Equal(t, "1.001", got.String())
}

func TestFormatUSD(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$10,100.00", FormatUSD(decimal.RequireFromString("10100")))
	assert.Equal(t, "$9,500.00", FormatUSD(decimal.RequireFromString("9500.000")))
	assert.Equal(t, "$0.13", FormatUSD(decimal.RequireFromString("0.125")))
	assert.Equal(t, "$0.00", FormatUSD(decimal.Zero))
}
