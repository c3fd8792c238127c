package account

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/internal/database"
	"github.com/rustyeddy/papertrader/market"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestSQLite(t *testing.T, driver string) *SQLite {
	t.Helper()

	db, err := database.Open(database.Config{Driver: driver, Path: filepath.Join(t.TempDir(), "cash.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewSQLite(context.Background(), db)
	require.NoError(t, err)
	return s
}

func newTestPebble(t *testing.T) *Pebble {
	t.Helper()

	db, err := database.OpenPebble(filepath.Join(t.TempDir(), "kv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPebble(db)
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"sqlite3": newTestSQLite(t, database.DriverCGO),
		"sqlite":  newTestSQLite(t, database.DriverPureGo),
		"pebble":  newTestPebble(t),
	}
}

func TestOpenAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			acct, err := s.Open(ctx, "acct-1", d("10000.00"))
			require.NoError(t, err)
			assert.Equal(t, "acct-1", acct.ID)
			assert.False(t, acct.CreatedAt.IsZero())

			got, err := s.Get(ctx, "acct-1")
			require.NoError(t, err)
			assert.True(t, got.Cash.Equal(d("10000")))

			bal, err := s.GetBalance(ctx, "acct-1")
			require.NoError(t, err)
			assert.True(t, bal.Equal(d("10000")))

			_, err = s.Open(ctx, "acct-1", d("5"))
			assert.ErrorIs(t, err, market.ErrAccountExists)

			_, err = s.Open(ctx, "acct-2", d("-1"))
			assert.ErrorIs(t, err, market.ErrInvalidInput)

			_, err = s.Open(ctx, "", d("1"))
			assert.ErrorIs(t, err, market.ErrInvalidInput)
		})
	}
}

func TestGetBalanceNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			_, err := s.GetBalance(ctx, "ghost")
			assert.ErrorIs(t, err, market.ErrAccountNotFound)

			_, err = s.ApplyDelta(ctx, "ghost", d("1"))
			assert.ErrorIs(t, err, market.ErrAccountNotFound)
		})
	}
}

func TestApplyDelta(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(ctx, "acct", d("10000.00"))
			require.NoError(t, err)

			bal, err := s.ApplyDelta(ctx, "acct", d("-500.000"))
			require.NoError(t, err)
			assert.True(t, bal.Equal(d("9500")), "got %s", bal)

			bal, err = s.ApplyDelta(ctx, "acct", d("600.125"))
			require.NoError(t, err)
			assert.True(t, bal.Equal(d("10100.125")), "got %s", bal)

			bal, err = s.ApplyDelta(ctx, "acct", d("-10100.125"))
			require.NoError(t, err)
			assert.True(t, bal.IsZero())
		})
	}
}

func TestApplyDeltaInsufficientFunds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(ctx, "acct", d("50.00"))
			require.NoError(t, err)

			_, err = s.ApplyDelta(ctx, "acct", d("-2800"))
			assert.ErrorIs(t, err, market.ErrInsufficientFunds)

			bal, err := s.GetBalance(ctx, "acct")
			require.NoError(t, err)
			assert.True(t, bal.Equal(d("50")), "balance changed to %s", bal)
		})
	}
}

func TestApplyDeltaConcurrentNoLostUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(ctx, "acct", d("100"))
			require.NoError(t, err)

			// 150 debits of 1 against 100: exactly 100 may succeed.
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				ok, fail int
			)
			for i := 0; i < 150; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.ApplyDelta(ctx, "acct", d("-1"))
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						ok++
					} else {
						assert.ErrorIs(t, err, market.ErrInsufficientFunds)
						fail++
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 100, ok)
			assert.Equal(t, 50, fail)
			bal, err := s.GetBalance(ctx, "acct")
			require.NoError(t, err)
			assert.True(t, bal.IsZero(), "got %s", bal)
		})
	}
}
