// Package ordering sorts transaction batches according to an accounting rule
// before they enter a ledger.
package ordering

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/cleared-dev/fxgains/internal/model"
)

// Strategy returns a newly allocated, ordered copy of txs. It never modifies txs.
type Strategy func(txs []*model.Transaction) []*model.Transaction

// For returns the strategy implementing rule.
func For(rule model.Rule) (Strategy, error) {
	switch rule {
	case model.FIFO:
		return ByDate, nil
	case model.LIFO:
		return ByDateDesc, nil
	case model.HIFO:
		return ByRateDesc, nil
	default:
		return nil, &model.UnknownRuleError{Rule: strconv.Itoa(int(rule))}
	}
}

// Order sorts txs with the strategy for rule.
func Order(rule model.Rule, txs []*model.Transaction) ([]*model.Transaction, error) {
	s, err := For(rule)
	if err != nil {
		return nil, err
	}
	return s(txs), nil
}

// ByDate orders oldest first.
func ByDate(txs []*model.Transaction) []*model.Transaction {
	return sorted(txs, func(a, b *model.Transaction) int {
		return a.Date().Compare(b.Date())
	})
}

// ByDateDesc orders newest first.
func ByDateDesc(txs []*model.Transaction) []*model.Transaction {
	return sorted(txs, func(a, b *model.Transaction) int {
		return b.Date().Compare(a.Date())
	})
}

// ByRateDesc orders the highest rate first.
func ByRateDesc(txs []*model.Transaction) []*model.Transaction {
	return sorted(txs, func(a, b *model.Transaction) int {
		return b.Rate().Cmp(a.Rate())
	})
}

// sorted stable-sorts a copy of txs by key, breaking ties by ascending ID so
// the result does not depend on the input order.
func sorted(txs []*model.Transaction, key func(a, b *model.Transaction) int) []*model.Transaction {
	out := slices.Clone(txs)
	if out == nil {
		out = []*model.Transaction{}
	}
	slices.SortStableFunc(out, func(a, b *model.Transaction) int {
		if c := key(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
	return out
}
