// Package basis holds the queue of purchase lots that provide cost basis.
package basis

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fxgains/internal/model"
)

// DefaultResidualThreshold is the EUR balance below which a partly matched lot is cleared.
var DefaultResidualThreshold = decimal.NewFromInt(1000)

// Queue is a sequence of basis lots consumed front to back. The order is set by
// whoever fills it; the queue never reorders. A lot stays at the front until its
// EUR balance is zero.
type Queue struct {
	lots     []*model.Transaction
	cursor   int
	residual decimal.Decimal
}

// NewQueue returns an empty queue. A zero threshold disables residual cleanup.
func NewQueue(residualThreshold decimal.Decimal) *Queue {
	return &Queue{residual: residualThreshold}
}

// Enqueue appends a lot.
func (q *Queue) Enqueue(lot *model.Transaction) {
	q.lots = append(q.lots, lot)
}

// Reset replaces the queue contents with lots and rewinds the cursor.
func (q *Queue) Reset(lots []*model.Transaction) {
	q.lots = append(q.lots[:0:0], lots...)
	q.cursor = 0
}

// Next skips exhausted lots and returns the current one without removing it.
func (q *Queue) Next() (*model.Transaction, bool) {
	for q.cursor < len(q.lots) {
		lot := q.lots[q.cursor]
		if lot.EURBalance().IsPositive() {
			return lot, true
		}
		q.cursor++
	}
	return nil, false
}

// Len is the number of lots that still have a balance.
func (q *Queue) Len() int {
	n := 0
	for _, lot := range q.lots[q.cursor:] {
		if lot.EURBalance().IsPositive() {
			n++
		}
	}
	return n
}

// IsEmpty reports whether every lot is exhausted.
func (q *Queue) IsEmpty() bool {
	_, ok := q.Next()
	return !ok
}

// Lots returns every lot ever enqueued, exhausted or not, in queue order.
func (q *Queue) Lots() []*model.Transaction {
	return q.lots
}

// ClearResidual force-consumes a lot whose balance fell strictly between zero
// and the residual threshold. It returns the cleared amount and whether it acted.
func (q *Queue) ClearResidual(lot *model.Transaction) (decimal.Decimal, bool) {
	bal := lot.EURBalance()
	if !bal.IsPositive() || !bal.LessThan(q.residual) {
		return decimal.Zero, false
	}
	return lot.ClearEURBalance(), true
}
