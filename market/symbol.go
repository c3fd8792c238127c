package market

import (
	"fmt"
	"strings"
)

// NormalizeSymbol trims and upper-cases a ticker. An empty result is
// ErrInvalidInput.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if sym == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}
	return sym, nil
}
