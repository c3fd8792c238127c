package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/rustyeddy/papertrader/pkg/id"
)

// SQLite is a Ledger on a shared *sql.DB. The caller owns the handle;
// Close is a no-op so the cash store can keep using it.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates the trades table if needed.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, storageErr("schema", err)
	}
	return &SQLite{db: db}, nil
}

const tradeColumns = `seq, trade_id, account_id, symbol, quantity, price, executed_at`

func (j *SQLite) Append(ctx context.Context, rec TradeRecord) (string, error) {
	if err := validate(rec); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = id.New()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, account_id, symbol, quantity, price, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AccountID, rec.Symbol, rec.Quantity, rec.Price.String(), rec.Time.UnixNano(),
	)
	if err != nil {
		return "", storageErr("append", err)
	}
	return rec.ID, nil
}

func (j *SQLite) Close() error {
	return nil
}
