package portfolio

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/internal/database"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
)

type balances map[string]decimal.Decimal

func (b balances) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	v, ok := b[id]
	if !ok {
		return decimal.Zero, market.ErrAccountNotFound
	}
	return v, nil
}

// countingQuotes records how often each symbol is quoted.
type countingQuotes struct {
	src   market.QuoteSource
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingQuotes) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	c.mu.Lock()
	c.calls[symbol]++
	c.mu.Unlock()
	return c.src.Quote(ctx, symbol)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newLedger(t *testing.T) journal.Ledger {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	l, err := journal.NewSQLite(context.Background(), db)
	require.NoError(t, err)
	return l
}

func appendAll(t *testing.T, l journal.Ledger, recs ...journal.TradeRecord) {
	t.Helper()
	for _, r := range recs {
		_, err := l.Append(context.Background(), r)
		require.NoError(t, err)
	}
}

func trade(symbol string, qty int64, price string) journal.TradeRecord {
	return journal.TradeRecord{
		AccountID: "acct",
		Symbol:    symbol,
		Quantity:  qty,
		Price:     d(price),
		Time:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func quoteTable() *market.QuoteTable {
	qt := market.NewQuoteTable()
	qt.Set(market.Quote{Symbol: "NFLX", Name: "Netflix Inc.", Price: d("120.00")})
	qt.Set(market.Quote{Symbol: "GOOG", Name: "Alphabet Inc.", Price: d("2800.00")})
	qt.Set(market.Quote{Symbol: "AAPL", Name: "Apple Inc.", Price: d("150.25")})
	return qt
}

func TestCurrentPositionsEqualsSignedSum(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	appendAll(t, l,
		trade("NFLX", 5, "100"),
		trade("AAPL", 10, "150"),
		trade("NFLX", -5, "120"),
		trade("AAPL", -3, "151"),
	)

	p := NewProjector(l, balances{"acct": d("100")})
	pos, err := p.CurrentPositions(context.Background(), "acct")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"AAPL": 7}, pos)

	recs, err := l.QueryByAccount(context.Background(), "acct", "")
	require.NoError(t, err)
	assert.Equal(t, journal.Aggregate(recs), pos)
}

func TestValuation(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	appendAll(t, l,
		trade("NFLX", 5, "100"),
		trade("GOOG", 1, "2700"),
		trade("AAPL", 2, "140"),
		trade("AAPL", -2, "150"),
	)

	quotes := &countingQuotes{src: quoteTable(), calls: map[string]int{}}
	p := NewProjector(l, balances{"acct": d("9500.00")})

	v, err := p.Valuation(context.Background(), "acct", quotes)
	require.NoError(t, err)

	require.Len(t, v.Positions, 2)
	assert.Equal(t, "GOOG", v.Positions[0].Symbol)
	assert.Equal(t, "Alphabet Inc.", v.Positions[0].Name)
	assert.True(t, v.Positions[0].Value.Equal(d("2800")))
	assert.Equal(t, "NFLX", v.Positions[1].Symbol)
	assert.Equal(t, int64(5), v.Positions[1].Quantity)
	assert.True(t, v.Positions[1].Value.Equal(d("600")))

	assert.True(t, v.Cash.Equal(d("9500")))
	assert.True(t, v.Total.Equal(d("12900")), "total %s", v.Total)
	assert.True(t, v.Holdings().Equal(d("3400")))

	// AAPL is closed and must not be quoted; held symbols are quoted once.
	assert.Equal(t, map[string]int{"GOOG": 1, "NFLX": 1}, quotes.calls)
}

func TestValuationEmptyPortfolio(t *testing.T) {
	t.Parallel()

	p := NewProjector(newLedger(t), balances{"acct": d("10000")})
	v, err := p.Valuation(context.Background(), "acct", quoteTable())
	require.NoError(t, err)
	assert.Empty(t, v.Positions)
	assert.True(t, v.Total.Equal(d("10000")))
}

func TestValuationFailsOnMissingQuote(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	appendAll(t, l, trade("NFLX", 5, "100"), trade("DELISTED", 1, "10"))

	p := NewProjector(l, balances{"acct": d("1")})
	v, err := p.Valuation(context.Background(), "acct", quoteTable())
	assert.ErrorIs(t, err, market.ErrValuation)
	assert.ErrorIs(t, err, market.ErrSymbolNotFound)
	assert.Empty(t, v.Positions)
}

func TestValuationUnknownAccount(t *testing.T) {
	t.Parallel()

	p := NewProjector(newLedger(t), balances{})
	_, err := p.Valuation(context.Background(), "ghost", quoteTable())
	assert.ErrorIs(t, err, market.ErrAccountNotFound)
}

func TestPriceIgnoresNonPositiveQuantities(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		AccountID: "acct",
		Cash:      d("10"),
		Positions: map[string]int64{"NFLX": 1, "GHOST": 0},
	}
	v, err := Price(context.Background(), snap, quoteTable())
	require.NoError(t, err)
	require.Len(t, v.Positions, 1)
	assert.True(t, v.Total.Equal(d("130")))
}
