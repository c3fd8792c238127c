package journal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/market"
)

func TestLedgerAppendAndQuery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	for name, l := range ledgers(t) {
		l := l
		t.Run(name, func(t *testing.T) {
			id1, err := l.Append(ctx, rec("acct-1", "NFLX", 5, "100.00", base))
			require.NoError(t, err)
			assert.NotEmpty(t, id1)

			id2, err := l.Append(ctx, rec("acct-1", "GOOG", 2, "2800.50", base.Add(time.Minute)))
			require.NoError(t, err)
			_, err = l.Append(ctx, rec("acct-2", "NFLX", 1, "101.00", base))
			require.NoError(t, err)
			id4, err := l.Append(ctx, rec("acct-1", "NFLX", -3, "120.00", base.Add(2*time.Minute)))
			require.NoError(t, err)

			all, err := l.QueryByAccount(ctx, "acct-1", "")
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{id1, id2, id4}, []string{all[0].ID, all[1].ID, all[2].ID})
			assert.Less(t, all[0].Seq, all[1].Seq)
			assert.Less(t, all[1].Seq, all[2].Seq)

			first := all[0]
			assert.Equal(t, "acct-1", first.AccountID)
			assert.Equal(t, "NFLX", first.Symbol)
			assert.Equal(t, int64(5), first.Quantity)
			assert.True(t, first.Price.Equal(decimal.NewFromInt(100)))
			assert.True(t, first.Time.Equal(base))

			nflx, err := l.QueryByAccount(ctx, "acct-1", "NFLX")
			require.NoError(t, err)
			require.Len(t, nflx, 2)
			assert.Equal(t, int64(5), nflx[0].Quantity)
			assert.Equal(t, int64(-3), nflx[1].Quantity)

			none, err := l.QueryByAccount(ctx, "nobody", "")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestLedgerQueryIsRestartable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, l := range ledgers(t) {
		l := l
		t.Run(name, func(t *testing.T) {
			for i := int64(1); i <= 5; i++ {
				_, err := l.Append(ctx, rec("acct", "AAPL", i, "10", time.Time{}))
				require.NoError(t, err)
			}

			first, err := l.QueryByAccount(ctx, "acct", "")
			require.NoError(t, err)
			second, err := l.QueryByAccount(ctx, "acct", "")
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestLedgerSumMatchesAggregate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, l := range ledgers(t) {
		l := l
		t.Run(name, func(t *testing.T) {
			trades := []TradeRecord{
				rec("acct", "NFLX", 5, "100", time.Time{}),
				rec("acct", "GOOG", 1, "2800", time.Time{}),
				rec("acct", "NFLX", -5, "120", time.Time{}),
				rec("acct", "AAPL", 10, "150", time.Time{}),
				rec("acct", "AAPL", -4, "155", time.Time{}),
				rec("other", "AAPL", 7, "150", time.Time{}),
			}
			for _, tr := range trades {
				_, err := l.Append(ctx, tr)
				require.NoError(t, err)
			}

			sum, err := l.SumQuantityByAccount(ctx, "acct")
			require.NoError(t, err)
			assert.Equal(t, map[string]int64{"GOOG": 1, "AAPL": 6}, sum)

			recs, err := l.QueryByAccount(ctx, "acct", "")
			require.NoError(t, err)
			assert.Equal(t, Aggregate(recs), sum)
		})
	}
}

func TestLedgerAppendRejectsMalformedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bad := []TradeRecord{
		rec("", "NFLX", 1, "1", time.Time{}),
		rec("acct", "", 1, "1", time.Time{}),
		rec("acct", "NFLX", 0, "1", time.Time{}),
		rec("acct", "NFLX", 1, "0", time.Time{}),
	}
	for name, l := range ledgers(t) {
		l := l
		t.Run(name, func(t *testing.T) {
			for _, r := range bad {
				_, err := l.Append(ctx, r)
				assert.ErrorIs(t, err, market.ErrInvalidInput)
			}
			recs, err := l.QueryByAccount(ctx, "acct", "")
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestAggregateOmitsClosedPositions(t *testing.T) {
	t.Parallel()

	got := Aggregate([]TradeRecord{
		{Symbol: "NFLX", Quantity: 5},
		{Symbol: "NFLX", Quantity: -5},
		{Symbol: "GOOG", Quantity: 3},
	})
	assert.Equal(t, map[string]int64{"GOOG": 3}, got)
	assert.Empty(t, Aggregate(nil))
}

func TestTradeRecordSideAndAmount(t *testing.T) {
	t.Parallel()

	buy := rec("a", "NFLX", 5, "100.00", time.Time{})
	assert.Equal(t, "BUY", buy.Side())
	assert.Equal(t, "-500", buy.Amount().String())

	sell := rec("a", "NFLX", -5, "120.00", time.Time{})
	assert.Equal(t, "SELL", sell.Side())
	assert.Equal(t, "600", sell.Amount().String())
}
