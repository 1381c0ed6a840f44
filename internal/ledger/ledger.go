// Package ledger matches taxable EUR sales against USD-funded EUR purchase lots
// and accumulates the realized gain of each sale.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/fxgains/internal/basis"
	"github.com/cleared-dev/fxgains/internal/model"
	"github.com/cleared-dev/fxgains/internal/ordering"
)

// DefaultMaterialityThreshold is the absolute gain at or below which a sale is
// left out of TaxableGains.
var DefaultMaterialityThreshold = decimal.NewFromInt(200)

// ErrAlreadyReported is returned when a ledger is used after Report has run.
var ErrAlreadyReported = errors.New("ledger already reported")

// Match is one allocation of part of a sale against one basis lot.
type Match struct {
	SaleID          int
	SaleDate        time.Time
	LotID           int
	LotDate         time.Time
	Amount          decimal.Decimal // EUR
	LotRate         decimal.Decimal
	SaleRate        decimal.Decimal
	Differential    decimal.Decimal // LotRate - SaleRate, 4 places, ties to even
	Gain            decimal.Decimal // Amount * (LotRate - SaleRate)
	ResidualCleared decimal.Decimal // lot balance force-cleared after this match
}

// Ledger holds every ingested transaction and the queue of basis lots for one
// report run. It is not safe for concurrent use.
type Ledger struct {
	rule        model.Rule
	order       ordering.Strategy
	log         logrus.FieldLogger
	materiality decimal.Decimal
	residual    decimal.Decimal

	balance      decimal.Decimal
	transactions []*model.Transaction
	queue        *basis.Queue

	gains     []decimal.Decimal
	matches   []Match
	unmatched []*model.Transaction
	reported  bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger for match tracing. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithMaterialityThreshold overrides DefaultMaterialityThreshold.
func WithMaterialityThreshold(d decimal.Decimal) Option {
	return func(l *Ledger) { l.materiality = d }
}

// WithResidualThreshold overrides basis.DefaultResidualThreshold.
func WithResidualThreshold(d decimal.Decimal) Option {
	return func(l *Ledger) { l.residual = d }
}

// WithStrategy replaces the ordering strategy derived from the rule.
func WithStrategy(s ordering.Strategy) Option {
	return func(l *Ledger) { l.order = s }
}

// New creates a ledger for rule with its own empty basis queue.
func New(rule model.Rule, opts ...Option) (*Ledger, error) {
	order, err := ordering.For(rule)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		rule:        rule,
		order:       order,
		log:         logrus.StandardLogger(),
		materiality: DefaultMaterialityThreshold,
		residual:    basis.DefaultResidualThreshold,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queue = basis.NewQueue(l.residual)
	return l, nil
}

// AddTransactions orders batch by the ledger's rule and ingests it. Basis lots
// are re-ordered across every batch ingested so far, so splitting input into
// batches does not change the result. IDs are not deduplicated.
func (l *Ledger) AddTransactions(batch []*model.Transaction) error {
	if l.reported {
		return ErrAlreadyReported
	}
	for _, t := range l.order(batch) {
		l.transactions = append(l.transactions, t)
		l.balance = l.balance.Add(t.USDAmount())
		if t.IsBasisProviding() {
			l.queue.Enqueue(t)
		}
	}
	l.queue.Reset(l.order(l.queue.Lots()))
	return nil
}

// Report matches every taxable sale, oldest first, against the basis queue. It
// mutates drawdowns and may run only once.
func (l *Ledger) Report() error {
	if l.reported {
		return ErrAlreadyReported
	}
	l.reported = true

	byDate := slices.Clone(l.transactions)
	slices.SortStableFunc(byDate, func(a, b *model.Transaction) int {
		return a.Date().Compare(b.Date())
	})

	for _, sale := range byDate {
		if !sale.IsTaxable() {
			continue
		}
		if err := l.matchSale(sale); err != nil {
			return err
		}
		l.gains = append(l.gains, sale.Gain())
		l.log.WithFields(logrus.Fields{
			"sale": sale.ID(),
			"gain": sale.Gain().StringFixed(2),
		}).Debug("sale reported")
	}
	return nil
}

func (l *Ledger) matchSale(sale *model.Transaction) error {
	for sale.EURBalance().IsPositive() {
		lot, ok := l.queue.Next()
		if !ok {
			break
		}

		amount := decimal.Min(sale.EURBalance().Abs(), lot.EURBalance().Abs())
		if err := sale.DrawEUR(amount); err != nil {
			return fmt.Errorf("matching sale %d: %w", sale.ID(), err)
		}
		if err := lot.DrawEUR(amount); err != nil {
			return fmt.Errorf("matching sale %d against lot %d: %w", sale.ID(), lot.ID(), err)
		}

		spread := lot.Rate().Sub(sale.Rate())
		diff := spread.RoundBank(4)
		gain := amount.Mul(spread)
		sale.RecordMatch(lot.Rate(), diff, gain)

		fields := logrus.Fields{
			"sale":         sale.ID(),
			"lot":          lot.ID(),
			"amount":       amount.StringFixed(2),
			"lot_rate":     lot.Rate().String(),
			"sale_rate":    sale.Rate().String(),
			"differential": diff.String(),
			"gain":         sale.Gain().StringFixed(2),
		}
		l.log.WithFields(fields).Debug("matched basis lot")

		cleared, _ := l.queue.ClearResidual(lot)
		if cleared.IsPositive() {
			l.log.WithFields(logrus.Fields{"lot": lot.ID(), "residual": cleared.StringFixed(2)}).Debug("cleared residual basis balance")
		}

		l.matches = append(l.matches, Match{
			SaleID:          sale.ID(),
			SaleDate:        sale.Date(),
			LotID:           lot.ID(),
			LotDate:         lot.Date(),
			Amount:          amount,
			LotRate:         lot.Rate(),
			SaleRate:        sale.Rate(),
			Differential:    diff,
			Gain:            gain,
			ResidualCleared: cleared,
		})
	}

	if !sale.FullyMatched() {
		l.unmatched = append(l.unmatched, sale)
		l.log.WithFields(logrus.Fields{
			"sale":      sale.ID(),
			"date":      sale.Date().Format("2006-01-02"),
			"unmatched": sale.EURBalance().StringFixed(2),
		}).Warn("no basis lot left to cover sale")
	}
	return nil
}

// TaxableGains sums the reported gains whose absolute value exceeds the
// materiality threshold.
func (l *Ledger) TaxableGains() decimal.Decimal {
	total := decimal.Zero
	for _, g := range l.gains {
		if g.Abs().GreaterThan(l.materiality) {
			total = total.Add(g)
		}
	}
	return total
}

// Rule is the accounting rule fixed at construction.
func (l *Ledger) Rule() model.Rule { return l.rule }

// Materiality is the threshold TaxableGains filters on.
func (l *Ledger) Materiality() decimal.Decimal { return l.materiality }

// Balance is the running USD total of every ingested transaction.
func (l *Ledger) Balance() decimal.Decimal { return l.balance }

// Transactions returns every ingested transaction in ingestion order.
func (l *Ledger) Transactions() []*model.Transaction { return l.transactions }

// BasisLots returns the basis queue contents in matching order.
func (l *Ledger) BasisLots() []*model.Transaction { return l.queue.Lots() }

// Gains returns one realized gain per taxable sale, in matching order.
func (l *Ledger) Gains() []decimal.Decimal { return slices.Clone(l.gains) }

// Matches returns every lot allocation made by Report.
func (l *Ledger) Matches() []Match { return l.matches }

// Unmatched returns the taxable sales that ran out of basis.
func (l *Ledger) Unmatched() []*model.Transaction { return l.unmatched }

// Reported reports whether Report has run.
func (l *Ledger) Reported() bool { return l.reported }

func (l *Ledger) String() string {
	return fmt.Sprintf("Ledger(%d transactions, $%s taxable gains)", len(l.transactions), l.TaxableGains().StringFixed(2))
}
