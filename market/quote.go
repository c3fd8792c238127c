package market

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
}

// QuoteSource looks up live prices. Implementations return an error
// wrapping ErrSymbolNotFound for unknown symbols.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// QuoteTable is an in-memory QuoteSource. It backs the "static" quote
// provider and tests.
type QuoteTable struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewQuoteTable() *QuoteTable {
	return &QuoteTable{quotes: make(map[string]Quote)}
}

// Set stores q under its normalized symbol.
func (qt *QuoteTable) Set(q Quote) {
	sym, err := NormalizeSymbol(q.Symbol)
	if err != nil {
		return
	}
	q.Symbol = sym
	qt.mu.Lock()
	defer qt.mu.Unlock()
	qt.quotes[sym] = q
}

// Delete removes a symbol so later lookups report ErrSymbolNotFound.
func (qt *QuoteTable) Delete(symbol string) {
	sym, _ := NormalizeSymbol(symbol)
	qt.mu.Lock()
	defer qt.mu.Unlock()
	delete(qt.quotes, sym)
}

func (qt *QuoteTable) Quote(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return Quote{}, err
	}
	qt.mu.RLock()
	defer qt.mu.RUnlock()
	q, ok := qt.quotes[sym]
	if !ok {
		return Quote{}, fmt.Errorf("quote %s: %w", sym, ErrSymbolNotFound)
	}
	return q, nil
}
