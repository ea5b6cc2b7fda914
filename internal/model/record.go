package model

import (
	"time"
)

// dateLayout renders block timestamps the way the ledger expects them.
const dateLayout = "2006-01-02 15:04:05 UTC"

// monthLayout names the per-month output bucket.
const monthLayout = "2006-01"

// AccountingRecord is the normalized representation of one liquidation
// transaction. It is built once per matching log and never mutated.
type AccountingRecord struct {
	Date            time.Time `json:"date"`
	AmountIn        string    `json:"amount_in"`
	AmountInSymbol  string    `json:"amount_in_symbol"`
	AmountOut       string    `json:"amount_out"`
	AmountOutSymbol string    `json:"amount_out_symbol"`
	Fee             string    `json:"fee"`
	FeeSymbol       string    `json:"fee_symbol"`
	TxHash          string    `json:"tx_hash"`
}

// CSVHeader returns the fixed 8-column header in ledger import order.
func CSVHeader() []string {
	return []string{
		"Date",
		"Sent Amount",
		"Sent Currency",
		"Received Amount",
		"Received Currency",
		"Fee Amount",
		"Fee Currency",
		"TxHash",
	}
}

// Row renders the record as one tabular row matching CSVHeader.
func (r AccountingRecord) Row() []string {
	return []string{
		r.Date.UTC().Format(dateLayout),
		r.AmountIn,
		r.AmountInSymbol,
		r.AmountOut,
		r.AmountOutSymbol,
		r.Fee,
		r.FeeSymbol,
		r.TxHash,
	}
}

// Month returns the calendar-month bucket key (YYYY-MM, UTC).
func (r AccountingRecord) Month() string {
	return r.Date.UTC().Format(monthLayout)
}
