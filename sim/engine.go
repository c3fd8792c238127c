// Package sim is the paper trading engine. It pairs every cash movement
// with a ledger append so that a trade either commits both or neither.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/account"
	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/pkg/id"
	"github.com/rustyeddy/papertrader/portfolio"
)

var _ broker.Broker = (*Engine)(nil)

type Engine struct {
	accounts  account.Store
	ledger    journal.Ledger
	projector *portfolio.Projector
	quotes    market.QuoteSource
	locks     *lockTable
	now       func() time.Time
	log       zerolog.Logger
}

type Option func(*Engine)

// WithClock sets the time source used to stamp trade records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log.With().Str("component", "engine").Logger() }
}

func NewEngine(accounts account.Store, ledger journal.Ledger, quotes market.QuoteSource, opts ...Option) *Engine {
	e := &Engine{
		accounts:  accounts,
		ledger:    ledger,
		projector: portfolio.NewProjector(ledger, accounts),
		quotes:    quotes,
		locks:     newLockTable(),
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Buy debits quantity × quote from the account's cash and appends a
// positive ledger record.
func (e *Engine) Buy(ctx context.Context, accountID, symbol string, quantity int64) (broker.TradeResult, error) {
	return e.trade(ctx, order{op: "buy", accountID: accountID, symbol: symbol, quantity: quantity})
}

// Sell credits quantity × quote to the account's cash and appends a
// negative ledger record. Selling more than is held is rejected.
func (e *Engine) Sell(ctx context.Context, accountID, symbol string, quantity int64) (broker.TradeResult, error) {
	return e.trade(ctx, order{op: "sell", accountID: accountID, symbol: symbol, quantity: quantity, sell: true})
}

type order struct {
	op        string
	accountID string
	symbol    string
	quantity  int64
	sell      bool
}

func (e *Engine) trade(ctx context.Context, o order) (broker.TradeResult, error) {
	res := broker.TradeResult{AccountID: o.accountID, Symbol: o.symbol, Quantity: o.quantity}

	sym, err := market.NormalizeSymbol(o.symbol)
	if err != nil {
		return e.reject(res, o, broker.RejectedInvalidInput, err)
	}
	o.symbol, res.Symbol = sym, sym
	if o.quantity <= 0 {
		return e.reject(res, o, broker.RejectedInvalidInput,
			fmt.Errorf("%w: quantity %d must be positive", market.ErrInvalidInput, o.quantity))
	}
	if o.accountID == "" {
		return e.reject(res, o, broker.RejectedInvalidInput,
			fmt.Errorf("%w: account id is required", market.ErrInvalidInput))
	}

	// Unknown accounts are turned away before any quote is requested.
	if _, err := retryOnce(ctx, func() (decimal.Decimal, error) {
		return e.accounts.GetBalance(ctx, o.accountID)
	}); err != nil {
		return e.reject(res, o, broker.OutcomeOf(err), err)
	}

	if o.sell {
		owned, err := e.owned(ctx, o.accountID, o.symbol)
		if err != nil {
			return e.reject(res, o, broker.Failed, err)
		}
		if o.quantity > owned {
			return e.reject(res, o, broker.RejectedInsufficientShares,
				fmt.Errorf("%w: holding %d", market.ErrInsufficientShares, owned))
		}
	}

	q, err := e.quotes.Quote(ctx, o.symbol)
	if err != nil {
		if errors.Is(err, market.ErrSymbolNotFound) {
			return e.reject(res, o, broker.RejectedInvalidInput,
				fmt.Errorf("%w: unknown symbol: %w", market.ErrInvalidInput, err))
		}
		return e.reject(res, o, broker.Failed, fmt.Errorf("quote %s: %w", o.symbol, err))
	}
	if !q.Price.IsPositive() {
		return e.reject(res, o, broker.RejectedInvalidInput,
			fmt.Errorf("%w: quote price %s for %s", market.ErrInvalidInput, q.Price, o.symbol))
	}
	res.Name, res.Price = q.Name, q.Price

	amount := market.Notional(q.Price, o.quantity)
	delta := amount
	qty := o.quantity
	if !o.sell {
		delta = amount.Neg()
	} else {
		qty = -qty
	}

	l := e.locks.get(o.accountID)
	l.Lock()
	defer l.Unlock()

	if o.sell {
		// Holdings may have moved while the quote was in flight.
		owned, err := e.owned(ctx, o.accountID, o.symbol)
		if err != nil {
			return e.reject(res, o, broker.Failed, err)
		}
		if o.quantity > owned {
			return e.reject(res, o, broker.RejectedInsufficientShares,
				fmt.Errorf("%w: holding %d", market.ErrInsufficientShares, owned))
		}
	} else {
		balance, err := retryOnce(ctx, func() (decimal.Decimal, error) {
			return e.accounts.GetBalance(ctx, o.accountID)
		})
		if err != nil {
			return e.reject(res, o, broker.OutcomeOf(err), err)
		}
		if balance.LessThan(amount) {
			return e.reject(res, o, broker.RejectedInsufficientFunds,
				fmt.Errorf("%w: cost %s exceeds balance %s", market.ErrInsufficientFunds, amount, balance))
		}
	}

	balance, err := e.accounts.ApplyDelta(ctx, o.accountID, delta)
	if err != nil {
		return e.reject(res, o, broker.OutcomeOf(err), err)
	}

	rec := journal.TradeRecord{
		AccountID: o.accountID,
		Symbol:    o.symbol,
		Quantity:  qty,
		Price:     q.Price,
		Time:      e.now().UTC(),
	}
	recID, err := e.ledger.Append(ctx, rec)
	if err != nil {
		return e.reject(res, o, broker.Failed, e.compensate(ctx, o, delta, err))
	}

	res.Outcome = broker.Committed
	res.Total = amount
	res.Balance = balance
	res.RecordID = recID
	res.Time = rec.Time

	e.log.Info().
		Str("op", o.op).
		Str("account", o.accountID).
		Str("symbol", o.symbol).
		Int64("quantity", o.quantity).
		Str("price", q.Price.String()).
		Str("total", amount.String()).
		Str("balance", balance.String()).
		Str("record", recID).
		Msg("trade committed")
	return res, nil
}

// compensate reverses a cash delta whose ledger append failed. The returned
// error always wraps market.ErrStorage.
func (e *Engine) compensate(ctx context.Context, o order, delta decimal.Decimal, appendErr error) error {
	e.log.Warn().
		Err(appendErr).
		Str("op", o.op).
		Str("account", o.accountID).
		Str("symbol", o.symbol).
		Int64("quantity", o.quantity).
		Str("delta", delta.String()).
		Msg("ledger append failed, reversing cash")

	// The reversal must run even if the caller has gone away.
	if _, err := e.accounts.ApplyDelta(context.WithoutCancel(ctx), o.accountID, delta.Neg()); err != nil {
		e.log.Error().
			Err(err).
			AnErr("append_error", appendErr).
			Str("op", o.op).
			Str("account", o.accountID).
			Str("symbol", o.symbol).
			Int64("quantity", o.quantity).
			Str("delta", delta.String()).
			Msg("cash reversal failed, balance needs manual repair")
		return fmt.Errorf("%w: append: %w; reversal: %w", market.ErrStorage, appendErr, err)
	}
	if errors.Is(appendErr, market.ErrStorage) {
		return appendErr
	}
	return fmt.Errorf("%w: %w", market.ErrStorage, appendErr)
}

func (e *Engine) reject(res broker.TradeResult, o order, outcome broker.Outcome, err error) (broker.TradeResult, error) {
	res.Outcome = outcome
	ev := e.log.Debug()
	if outcome == broker.Failed {
		ev = e.log.Warn()
	}
	ev.Err(err).
		Str("op", o.op).
		Str("account", o.accountID).
		Str("symbol", res.Symbol).
		Int64("quantity", o.quantity).
		Stringer("outcome", outcome).
		Msg("trade not committed")
	return res, &broker.TradeError{
		Op:        o.op,
		AccountID: o.accountID,
		Symbol:    res.Symbol,
		Quantity:  o.quantity,
		Outcome:   outcome,
		Err:       err,
	}
}

func (e *Engine) owned(ctx context.Context, accountID, symbol string) (int64, error) {
	pos, err := retryOnce(ctx, func() (map[string]int64, error) {
		return e.projector.CurrentPositions(ctx, accountID)
	})
	if err != nil {
		return 0, err
	}
	return pos[symbol], nil
}

// Portfolio reads cash and positions under the account's read lock, so no
// trade lands between the two reads, then prices them after releasing it.
// Unknown accounts are rejected before a lock is allocated for them.
func (e *Engine) Portfolio(ctx context.Context, accountID string) (portfolio.Valuation, error) {
	if _, err := e.Balance(ctx, accountID); err != nil {
		return portfolio.Valuation{}, err
	}
	l := e.locks.get(accountID)
	l.RLock()
	snap, err := retryOnce(ctx, func() (portfolio.Snapshot, error) {
		return e.projector.Snapshot(ctx, accountID)
	})
	l.RUnlock()
	if err != nil {
		return portfolio.Valuation{}, err
	}
	return portfolio.Price(ctx, snap, e.quotes)
}

// History returns every trade of the account, oldest first.
func (e *Engine) History(ctx context.Context, accountID string) ([]journal.TradeRecord, error) {
	return e.Trades(ctx, accountID, "")
}

// Trades is History filtered to one symbol. An empty symbol matches all.
func (e *Engine) Trades(ctx context.Context, accountID, symbol string) ([]journal.TradeRecord, error) {
	if symbol != "" {
		sym, err := market.NormalizeSymbol(symbol)
		if err != nil {
			return nil, err
		}
		symbol = sym
	}
	if _, err := e.Balance(ctx, accountID); err != nil {
		return nil, err
	}
	return retryOnce(ctx, func() ([]journal.TradeRecord, error) {
		return e.ledger.QueryByAccount(ctx, accountID, symbol)
	})
}

func (e *Engine) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return retryOnce(ctx, func() (decimal.Decimal, error) {
		return e.accounts.GetBalance(ctx, accountID)
	})
}

func (e *Engine) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return market.Quote{}, err
	}
	return e.quotes.Quote(ctx, sym)
}

// OpenAccount registers an account. An empty id gets a generated one.
func (e *Engine) OpenAccount(ctx context.Context, accountID string, opening decimal.Decimal) (account.Account, error) {
	if accountID == "" {
		accountID = id.NewAccount()
	}
	acct, err := e.accounts.Open(ctx, accountID, opening)
	if err != nil {
		return account.Account{}, err
	}
	e.log.Info().
		Str("account", acct.ID).
		Str("cash", acct.Cash.String()).
		Msg("account opened")
	return acct, nil
}
