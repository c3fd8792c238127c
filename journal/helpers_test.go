package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/internal/database"
)

func newTestSQLite(t *testing.T) (*SQLite, *sql.DB) {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	j, err := NewSQLite(context.Background(), db)
	require.NoError(t, err)
	return j, db
}

func newTestPebble(t *testing.T) *Pebble {
	t.Helper()

	db, err := database.OpenPebble(filepath.Join(t.TempDir(), "kv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	j, err := NewPebble(db)
	require.NoError(t, err)
	return j
}

// ledgers returns one fresh instance of every Ledger implementation.
func ledgers(t *testing.T) map[string]Ledger {
	t.Helper()
	j, _ := newTestSQLite(t)
	return map[string]Ledger{
		"sqlite": j,
		"pebble": newTestPebble(t),
	}
}

func rec(account, symbol string, qty int64, price string, at time.Time) TradeRecord {
	return TradeRecord{
		AccountID: account,
		Symbol:    symbol,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
		Time:      at,
	}
}
