package market

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// SettlementPlaces is the number of fractional digits trade totals are
// rounded to before cash moves.
const SettlementPlaces int32 = 3

// Currency is the single account currency. Multi-currency is not supported.
const Currency = money.USD

// RoundHalfUp rounds d to places fractional digits, ties away from zero.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// Notional returns price*units rounded for settlement.
func Notional(price decimal.Decimal, units int64) decimal.Decimal {
	return RoundHalfUp(price.Mul(decimal.NewFromInt(units)), SettlementPlaces)
}

// FormatUSD renders an amount the way a brokerage statement would,
// e.g. "$10,100.00". Sub-cent digits are rounded away for display only.
func FormatUSD(d decimal.Decimal) string {
	cur := money.GetCurrency(Currency)
	cents := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(cents, Currency).Display()
}
