package market

import "errors"

// Business outcomes. These are surfaced to callers verbatim and never retried.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Lookup and infrastructure failures.
var (
	ErrSymbolNotFound  = errors.New("symbol not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrStorage         = errors.New("storage error")
	ErrValuation       = errors.New("valuation error")
)
