package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVHeader is the header row written by CSV.
const CSVHeader = "id,date,home_currency,home_amount,quote_currency,quote_amount,rate,fee,is_taxable,is_basis,matched_basis_rate,rate_differential,gain,fully_matched"

// TotalID marks the trailing aggregate row in CSV output.
const TotalID = "taxable_gains"

const (
	numFields      = 14
	colID          = 0
	colDate        = 1
	colHomeCcy     = 2
	colHomeAmount  = 3
	colQuoteCcy    = 4
	colQuoteAmount = 5
	colRate        = 6
	colFee         = 7
	colTaxable     = 8
	colBasis       = 9
	colBasisRate   = 10
	colDiff        = 11
	colGain        = 12
	colMatched     = 13
)

// CSV writes one row per transaction followed by an aggregate row whose id
// column is TotalID and whose gain column holds the taxable gains.
type CSV struct {
	W io.Writer
}

func (c *CSV) Write(r Report) error {
	cw := csv.NewWriter(c.W)

	if err := cw.Write(strings.Split(CSVHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range r.Rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	total := make([]string, numFields)
	total[colID] = TotalID
	total[colGain] = r.TaxableGains.StringFixed(2)
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("writing total: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colID] = strconv.Itoa(row.ID)
	rec[colDate] = row.Date.Format("20060102")
	rec[colHomeCcy] = string(row.HomeCurrency)
	rec[colHomeAmount] = row.HomeAmount.String()
	rec[colQuoteCcy] = string(row.QuoteCurrency)
	rec[colQuoteAmount] = row.QuoteAmount.String()
	rec[colRate] = row.Rate.String()
	rec[colFee] = row.Fee.String()
	rec[colTaxable] = strconv.FormatBool(row.IsTaxable)
	rec[colBasis] = strconv.FormatBool(row.IsBasisProviding)
	if row.MatchedBasisRate.Valid {
		rec[colBasisRate] = row.MatchedBasisRate.Decimal.String()
	}
	if row.RateDifferential.Valid {
		rec[colDiff] = row.RateDifferential.Decimal.String()
	}
	rec[colGain] = row.Gain.StringFixed(2)
	rec[colMatched] = strconv.FormatBool(row.FullyMatched)
	return rec
}
