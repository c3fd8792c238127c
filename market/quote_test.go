package market

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	sym, err := NormalizeSymbol("  nflx ")
	require.NoError(t, err)
	assert.Equal(t, "NFLX", sym)

	_, err = NormalizeSymbol("   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuoteTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	qt := NewQuoteTable()
	qt.Set(Quote{Symbol: "nflx", Name: "Netflix Inc.", Price: decimal.RequireFromString("100.00")})

	q, err := qt.Quote(ctx, "NFLX")
	require.NoError(t, err)
	assert.Equal(t, "NFLX", q.Symbol)
	assert.Equal(t, "Netflix Inc.", q.Name)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(100)))

	q, err = qt.Quote(ctx, "nflx")
	require.NoError(t, err)
	assert.Equal(t, "NFLX", q.Symbol)

	_, err = qt.Quote(ctx, "ZZZZ")
	assert.ErrorIs(t, err, ErrSymbolNotFound)

	qt.Delete("NFLX")
	_, err = qt.Quote(ctx, "NFLX")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestQuoteTableCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewQuoteTable().Quote(ctx, "NFLX")
	assert.ErrorIs(t, err, context.Canceled)
}
