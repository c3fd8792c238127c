// Package account keeps the one mutable fact in the system: each account's
// cash balance.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/market"
)

// DefaultOpeningCash is granted to newly opened accounts.
var DefaultOpeningCash = decimal.NewFromInt(10000)

type Account struct {
	ID        string
	Cash      decimal.Decimal
	CreatedAt time.Time
}

// Store is the cash ledger. ApplyDelta is the only mutation of an existing
// balance and checks-then-sets atomically, so concurrent callers cannot lose
// an update or drive a balance below zero.
type Store interface {
	Open(ctx context.Context, id string, opening decimal.Decimal) (Account, error)
	Get(ctx context.Context, id string) (Account, error)
	GetBalance(ctx context.Context, id string) (decimal.Decimal, error)
	ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error)
}

func checkOpen(id string, opening decimal.Decimal) error {
	if id == "" {
		return fmt.Errorf("%w: account id is required", market.ErrInvalidInput)
	}
	if opening.IsNegative() {
		return fmt.Errorf("%w: opening cash %s is negative", market.ErrInvalidInput, opening)
	}
	return nil
}

// applyDelta is the shared check step of ApplyDelta.
func applyDelta(id string, balance, delta decimal.Decimal) (decimal.Decimal, error) {
	next := balance.Add(delta)
	if next.IsNegative() {
		return balance, fmt.Errorf("account %s: balance %s cannot cover %s: %w", id, balance, delta.Neg(), market.ErrInsufficientFunds)
	}
	return next, nil
}

func notFound(id string) error {
	return fmt.Errorf("account %s: %w", id, market.ErrAccountNotFound)
}

func storageErr(op, id string, err error) error {
	return fmt.Errorf("account %s %s: %w: %w", op, id, market.ErrStorage, err)
}
