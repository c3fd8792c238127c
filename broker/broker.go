// Package broker defines the trading surface shared by the engine and its
// callers.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/account"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/portfolio"
)

type Broker interface {
	Buy(ctx context.Context, accountID, symbol string, quantity int64) (TradeResult, error)
	Sell(ctx context.Context, accountID, symbol string, quantity int64) (TradeResult, error)
	Portfolio(ctx context.Context, accountID string) (portfolio.Valuation, error)
	History(ctx context.Context, accountID string) ([]journal.TradeRecord, error)
	Quote(ctx context.Context, symbol string) (market.Quote, error)
	OpenAccount(ctx context.Context, id string, opening decimal.Decimal) (account.Account, error)
}

// Outcome is the result class of a trade attempt.
type Outcome int

const (
	Committed Outcome = iota
	RejectedInvalidInput
	RejectedInsufficientFunds
	RejectedInsufficientShares
	// Failed is a storage or transport failure. Like the rejections it
	// leaves no side effects behind.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case RejectedInvalidInput:
		return "rejected: invalid input"
	case RejectedInsufficientFunds:
		return "rejected: insufficient funds"
	case RejectedInsufficientShares:
		return "rejected: insufficient shares"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Rejected reports whether the outcome is a business rejection.
func (o Outcome) Rejected() bool {
	return o == RejectedInvalidInput || o == RejectedInsufficientFunds || o == RejectedInsufficientShares
}

// TradeResult describes a trade attempt. Only Outcome, AccountID, Symbol
// and Quantity are set when the trade did not commit.
type TradeResult struct {
	Outcome   Outcome
	AccountID string
	Symbol    string
	Name      string
	Quantity  int64
	Price     decimal.Decimal
	Total     decimal.Decimal
	Balance   decimal.Decimal
	RecordID  string
	Time      time.Time
}

// TradeError carries the context of a trade that did not commit.
type TradeError struct {
	Op        string
	AccountID string
	Symbol    string
	Quantity  int64
	Outcome   Outcome
	Err       error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("%s %d %s for %s: %s: %v", e.Op, e.Quantity, e.Symbol, e.AccountID, e.Outcome, e.Err)
}

func (e *TradeError) Unwrap() error { return e.Err }

// OutcomeOf classifies err. A nil error is Committed.
func OutcomeOf(err error) Outcome {
	var te *TradeError
	switch {
	case err == nil:
		return Committed
	case errors.As(err, &te):
		return te.Outcome
	case errors.Is(err, market.ErrInsufficientFunds):
		return RejectedInsufficientFunds
	case errors.Is(err, market.ErrInsufficientShares):
		return RejectedInsufficientShares
	case errors.Is(err, market.ErrInvalidInput),
		errors.Is(err, market.ErrSymbolNotFound),
		errors.Is(err, market.ErrAccountNotFound):
		return RejectedInvalidInput
	default:
		return Failed
	}
}
