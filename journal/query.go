package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec   TradeRecord
		price string
		at    int64
	)
	if err := s.Scan(&rec.Seq, &rec.ID, &rec.AccountID, &rec.Symbol, &rec.Quantity, &price, &at); err != nil {
		return TradeRecord{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("trade %s: bad price %q: %w", rec.ID, price, err)
	}
	rec.Price = p
	rec.Time = time.Unix(0, at).UTC()
	return rec, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (TradeRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrTradeNotFound)
		}
		return TradeRecord{}, storageErr("get", err)
	}
	return rec, nil
}

func (j *SQLite) QueryByAccount(ctx context.Context, accountID, symbol string) ([]TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE account_id = ?`
	args := []any{accountID}
	if symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY seq ASC`

	return j.list(ctx, query, args...)
}

// ListTradesBetween returns an account's trades executed within [start, end).
func (j *SQLite) ListTradesBetween(ctx context.Context, accountID string, start, end time.Time) ([]TradeRecord, error) {
	return j.list(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE account_id = ? AND executed_at >= ? AND executed_at < ?
		ORDER BY seq ASC`, accountID, start.UnixNano(), end.UnixNano())
}

func (j *SQLite) list(ctx context.Context, query string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query", err)
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, storageErr("scan", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query", err)
	}
	return out, nil
}

func (j *SQLite) SumQuantityByAccount(ctx context.Context, accountID string) (map[string]int64, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT symbol, SUM(quantity)
		FROM trades
		WHERE account_id = ?
		GROUP BY symbol
		HAVING SUM(quantity) != 0`, accountID)
	if err != nil {
		return nil, storageErr("sum", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			sym string
			qty int64
		)
		if err := rows.Scan(&sym, &qty); err != nil {
			return nil, storageErr("sum", err)
		}
		out[sym] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("sum", err)
	}
	return out, nil
}
