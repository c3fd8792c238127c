package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block. All facts go
// into the PROPERTIES drawer so they stay searchable.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** %s %d %s (%s)", t.Side(), abs(t.Quantity), t.Symbol, shortID(t.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":ACCOUNT: %s\n", t.AccountID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":QUANTITY: %d\n", t.Quantity))
	b.WriteString(fmt.Sprintf(":PRICE: %s\n", market.FormatUSD(t.Price)))
	b.WriteString(fmt.Sprintf(":AMOUNT: %s\n", market.FormatUSD(t.Amount())))
	b.WriteString(fmt.Sprintf(":EXECUTED: %s\n", t.Time.UTC().Format(time.RFC3339)))
	b.WriteString(":END:\n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
