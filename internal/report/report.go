// Package report turns a reported ledger into rows and writes them to a sink.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fxgains/internal/ledger"
	"github.com/cleared-dev/fxgains/internal/model"
)

// Row is one transaction as shown to the user.
type Row struct {
	ID               int
	Date             time.Time
	HomeCurrency     model.Currency
	HomeAmount       decimal.Decimal
	QuoteCurrency    model.Currency
	QuoteAmount      decimal.Decimal
	Rate             decimal.Decimal
	Fee              decimal.Decimal
	IsTaxable        bool
	IsBasisProviding bool
	MatchedBasisRate decimal.NullDecimal
	RateDifferential decimal.NullDecimal
	Gain             decimal.Decimal
	FullyMatched     bool
}

// Report is everything a sink receives for one run.
type Report struct {
	Rule         model.Rule
	Rows         []Row
	TaxableGains decimal.Decimal
	Materiality  decimal.Decimal
	Balance      decimal.Decimal
	Unmatched    []int // IDs of sales left without enough basis
	Summary      string
}

// Sink receives a finished report.
type Sink interface {
	Write(r Report) error
}

// Formats lists the names accepted by NewSink.
var Formats = []string{"table", "pretty", "csv"}

// NewSink returns the sink for format writing to w.
func NewSink(format string, w io.Writer) (Sink, error) {
	switch strings.ToLower(format) {
	case "table", "markdown", "md":
		return &Markdown{W: w}, nil
	case "pretty":
		return &Pretty{W: w, Style: DefaultStyle}, nil
	case "csv":
		return &CSV{W: w}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// FromLedger builds the report of a ledger whose Report has run. Rows are
// ordered by date, ties in ingestion order.
func FromLedger(l *ledger.Ledger) Report {
	txs := slices.Clone(l.Transactions())
	slices.SortStableFunc(txs, func(a, b *model.Transaction) int {
		return a.Date().Compare(b.Date())
	})

	rows := make([]Row, len(txs))
	for i, t := range txs {
		rows[i] = Row{
			ID:               t.ID(),
			Date:             t.Date(),
			HomeCurrency:     t.HomeCurrency(),
			HomeAmount:       t.HomeAmount(),
			QuoteCurrency:    t.QuoteCurrency(),
			QuoteAmount:      t.QuoteAmount(),
			Rate:             t.Rate(),
			Fee:              t.Fee(),
			IsTaxable:        t.IsTaxable(),
			IsBasisProviding: t.IsBasisProviding(),
			MatchedBasisRate: t.MatchedBasisRate(),
			RateDifferential: t.RateDifferential(),
			Gain:             t.Gain(),
			FullyMatched:     t.FullyMatched(),
		}
	}

	var unmatched []int
	for _, t := range l.Unmatched() {
		unmatched = append(unmatched, t.ID())
	}

	return Report{
		Rule:         l.Rule(),
		Rows:         rows,
		TaxableGains: l.TaxableGains(),
		Materiality:  l.Materiality(),
		Balance:      l.Balance(),
		Unmatched:    unmatched,
		Summary:      l.String(),
	}
}
