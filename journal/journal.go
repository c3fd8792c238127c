package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/market"
)

// ErrTradeNotFound is returned when a trade id has no record.
var ErrTradeNotFound = errors.New("trade not found")

// TradeRecord is one immutable ledger fact. Quantity is signed: positive
// for a buy, negative for a sell.
type TradeRecord struct {
	ID        string
	Seq       int64
	AccountID string
	Symbol    string
	Quantity  int64
	Price     decimal.Decimal
	Time      time.Time
}

// Side reports "BUY" or "SELL" from the sign of Quantity.
func (r TradeRecord) Side() string {
	if r.Quantity < 0 {
		return "SELL"
	}
	return "BUY"
}

// Amount is the signed settlement amount of the record: negative cash for
// a buy, positive for a sell.
func (r TradeRecord) Amount() decimal.Decimal {
	return market.Notional(r.Price, r.Quantity).Neg()
}

// Ledger is the append-only trade store. It never applies business rules;
// every durability failure wraps market.ErrStorage.
type Ledger interface {
	// Append stores rec and returns its id. An empty rec.ID is assigned.
	Append(ctx context.Context, rec TradeRecord) (string, error)

	// QueryByAccount returns the account's records in insertion order.
	// An empty symbol disables the filter.
	QueryByAccount(ctx context.Context, accountID, symbol string) ([]TradeRecord, error)

	// SumQuantityByAccount returns net quantity per symbol, omitting
	// symbols that net to zero.
	SumQuantityByAccount(ctx context.Context, accountID string) (map[string]int64, error)

	Close() error
}

// Aggregate folds records into net quantity per symbol. Zero positions are
// omitted.
func Aggregate(recs []TradeRecord) map[string]int64 {
	out := make(map[string]int64)
	for _, r := range recs {
		out[r.Symbol] += r.Quantity
	}
	for sym, q := range out {
		if q == 0 {
			delete(out, sym)
		}
	}
	return out
}

func validate(rec TradeRecord) error {
	switch {
	case rec.AccountID == "":
		return fmt.Errorf("%w: record has no account id", market.ErrInvalidInput)
	case rec.Symbol == "":
		return fmt.Errorf("%w: record has no symbol", market.ErrInvalidInput)
	case rec.Quantity == 0:
		return fmt.Errorf("%w: record has zero quantity", market.ErrInvalidInput)
	case !rec.Price.IsPositive():
		return fmt.Errorf("%w: record price must be positive", market.ErrInvalidInput)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("journal %s: %w: %w", op, market.ErrStorage, err)
}
