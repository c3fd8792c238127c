// Package portfolio derives holdings and valuations from the trade ledger.
// Nothing here is stored: every call re-aggregates the ledger.
package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
)

// BalanceReader is the read side of account.Store.
type BalanceReader interface {
	GetBalance(ctx context.Context, id string) (decimal.Decimal, error)
}

// Position is one priced holding.
type Position struct {
	Symbol   string
	Name     string
	Quantity int64
	Price    decimal.Decimal
	Value    decimal.Decimal
}

// Valuation is a priced portfolio. Total is the sum of position values plus
// cash.
type Valuation struct {
	AccountID string
	Positions []Position
	Cash      decimal.Decimal
	Total     decimal.Decimal
}

// Holdings returns the market value of all positions, excluding cash.
func (v Valuation) Holdings() decimal.Decimal {
	return v.Total.Sub(v.Cash)
}

// Snapshot is cash and net positions read together.
type Snapshot struct {
	AccountID string
	Cash      decimal.Decimal
	Positions map[string]int64
}

// Projector aggregates a Ledger into positions.
type Projector struct {
	ledger journal.Ledger
	cash   BalanceReader
}

func NewProjector(ledger journal.Ledger, cash BalanceReader) *Projector {
	return &Projector{ledger: ledger, cash: cash}
}

// CurrentPositions returns net quantity per symbol. Fully closed positions
// are omitted.
func (p *Projector) CurrentPositions(ctx context.Context, accountID string) (map[string]int64, error) {
	pos, err := p.ledger.SumQuantityByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("positions for %s: %w", accountID, err)
	}
	return pos, nil
}

// Snapshot reads the cash balance and positions of an account. Callers that
// need the two to agree must hold off writers for the account meanwhile.
func (p *Projector) Snapshot(ctx context.Context, accountID string) (Snapshot, error) {
	cash, err := p.cash.GetBalance(ctx, accountID)
	if err != nil {
		return Snapshot{}, err
	}
	pos, err := p.CurrentPositions(ctx, accountID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{AccountID: accountID, Cash: cash, Positions: pos}, nil
}

// Valuation reads a snapshot and prices it.
func (p *Projector) Valuation(ctx context.Context, accountID string, quotes market.QuoteSource) (Valuation, error) {
	snap, err := p.Snapshot(ctx, accountID)
	if err != nil {
		return Valuation{}, err
	}
	return Price(ctx, snap, quotes)
}

// Price quotes each held symbol exactly once, concurrently. If any quote
// fails the whole valuation fails with market.ErrValuation; a partial or
// stale valuation is never returned.
func Price(ctx context.Context, snap Snapshot, quotes market.QuoteSource) (Valuation, error) {
	symbols := make([]string, 0, len(snap.Positions))
	for sym, qty := range snap.Positions {
		if qty > 0 {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	rows := make([]Position, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			q, err := quotes.Quote(gctx, sym)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", market.ErrValuation, sym, err)
			}
			qty := snap.Positions[sym]
			rows[i] = Position{
				Symbol:   sym,
				Name:     q.Name,
				Quantity: qty,
				Price:    q.Price,
				Value:    q.Price.Mul(decimal.NewFromInt(qty)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Valuation{}, err
	}

	total := snap.Cash
	for _, r := range rows {
		total = total.Add(r.Value)
	}
	return Valuation{
		AccountID: snap.AccountID,
		Positions: rows,
		Cash:      snap.Cash,
		Total:     total,
	}, nil
}
