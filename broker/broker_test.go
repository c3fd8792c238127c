package broker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/papertrader/market"
)

func TestOutcomeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, Committed},
		{"funds", fmt.Errorf("buy: %w", market.ErrInsufficientFunds), RejectedInsufficientFunds},
		{"shares", market.ErrInsufficientShares, RejectedInsufficientShares},
		{"invalid", market.ErrInvalidInput, RejectedInvalidInput},
		{"unknown symbol", fmt.Errorf("quote: %w", market.ErrSymbolNotFound), RejectedInvalidInput},
		{"unknown account", market.ErrAccountNotFound, RejectedInvalidInput},
		{"storage", fmt.Errorf("append: %w", market.ErrStorage), Failed},
		{"other", errors.New("boom"), Failed},
		{"trade error wins", &TradeError{Outcome: RejectedInsufficientShares, Err: market.ErrStorage}, RejectedInsufficientShares},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, OutcomeOf(tt.err))
		})
	}
}

func TestTradeErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := error(&TradeError{
		Op:        "sell",
		AccountID: "acct",
		Symbol:    "NFLX",
		Quantity:  10,
		Outcome:   RejectedInsufficientShares,
		Err:       market.ErrInsufficientShares,
	})
	wrapped := fmt.Errorf("cli: %w", err)

	assert.ErrorIs(t, wrapped, market.ErrInsufficientShares)
	assert.Equal(t, RejectedInsufficientShares, OutcomeOf(wrapped))
	assert.Contains(t, err.Error(), "sell 10 NFLX for acct")
	assert.Contains(t, err.Error(), "insufficient shares")
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "committed", Committed.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
	assert.True(t, RejectedInsufficientFunds.Rejected())
	assert.False(t, Failed.Rejected())
	assert.False(t, Committed.Rejected())
}
