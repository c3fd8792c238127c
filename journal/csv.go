package journal

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVHeader is the column layout written by WriteCSV.
var CSVHeader = []string{"trade_id", "account_id", "symbol", "side", "quantity", "price", "amount", "date", "time"}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// WriteCSV exports records, header first, in the order given.
func WriteCSV(w io.Writer, recs []TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range recs {
		err := cw.Write([]string{
			r.ID,
			r.AccountID,
			r.Symbol,
			r.Side(),
			strconv.FormatInt(r.Quantity, 10),
			r.Price.String(),
			r.Amount().StringFixed(3),
			r.Time.UTC().Format(dateLayout),
			r.Time.UTC().Format(timeLayout),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
