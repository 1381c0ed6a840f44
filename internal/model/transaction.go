package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code.
type Currency string

// The single currency pair the ledger handles. A sale of EUR is taxable, a
// sale of USD buys EUR and provides cost basis.
const (
	EUR Currency = "EUR"
	USD Currency = "USD"
)

// ErrOverDrawn is returned when a drawdown would exceed a transaction's amount.
var ErrOverDrawn = errors.New("drawdown exceeds transaction amount")

// Transaction is one currency exchange. Its inputs are fixed at construction;
// only the ledger-assigned matching state changes afterwards.
type Transaction struct {
	id            int
	date          time.Time
	homeCurrency  Currency
	homeAmount    decimal.Decimal // negative = outflow of homeCurrency
	quoteCurrency Currency
	rate          decimal.Decimal // homeAmount * rate = quote amount magnitude
	fee           decimal.Decimal

	eurDrawdown      decimal.Decimal
	usdDrawdown      decimal.Decimal
	matchedBasisRate decimal.NullDecimal
	rateDifferential decimal.NullDecimal
	gain             decimal.Decimal
}

// NewTransaction validates a raw record and builds a Transaction from it.
func NewTransaction(r RawRecord) (*Transaction, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	id, err := strconv.Atoi(r.ID)
	if err != nil {
		return nil, &InvalidRecordError{ID: r.ID, Field: "id", Value: r.ID, Reason: "is out of range"}
	}
	// Validate guarantees the parses below succeed.
	date, _ := time.Parse(DateFormat, r.Date)
	homeAmount, _ := decimal.NewFromString(r.HomeAmount)
	rate, _ := decimal.NewFromString(r.Rate)
	fee := decimal.Zero
	if r.Fee != "" {
		fee, _ = decimal.NewFromString(r.Fee)
	}

	return &Transaction{
		id:            id,
		date:          date,
		homeCurrency:  Currency(r.HomeCurrency),
		homeAmount:    homeAmount,
		quoteCurrency: Currency(r.QuoteCurrency),
		rate:          rate,
		fee:           fee,
	}, nil
}

// MustTransaction is NewTransaction for fixtures; it panics on invalid input.
func MustTransaction(r RawRecord) *Transaction {
	tx, err := NewTransaction(r)
	if err != nil {
		panic(err)
	}
	return tx
}

func (t *Transaction) ID() int                      { return t.id }
func (t *Transaction) Date() time.Time              { return t.date }
func (t *Transaction) HomeCurrency() Currency       { return t.homeCurrency }
func (t *Transaction) HomeAmount() decimal.Decimal  { return t.homeAmount }
func (t *Transaction) QuoteCurrency() Currency      { return t.quoteCurrency }
func (t *Transaction) Rate() decimal.Decimal        { return t.rate }
func (t *Transaction) Fee() decimal.Decimal         { return t.fee }
func (t *Transaction) EURDrawdown() decimal.Decimal { return t.eurDrawdown }
func (t *Transaction) USDDrawdown() decimal.Decimal { return t.usdDrawdown }
func (t *Transaction) Gain() decimal.Decimal        { return t.gain }

// MatchedBasisRate is the rate of the last basis lot matched against this sale.
func (t *Transaction) MatchedBasisRate() decimal.NullDecimal { return t.matchedBasisRate }

// RateDifferential is basis rate minus sale rate for the last match, rounded to 4 places.
func (t *Transaction) RateDifferential() decimal.NullDecimal { return t.rateDifferential }

// QuoteAmount is the counter amount of the exchange, with the opposite sign of HomeAmount.
func (t *Transaction) QuoteAmount() decimal.Decimal {
	return t.homeAmount.Mul(t.rate).Neg()
}

// EURAmount is the signed EUR side of the exchange.
func (t *Transaction) EURAmount() decimal.Decimal {
	return t.amountIn(EUR)
}

// USDAmount is the signed USD side of the exchange.
func (t *Transaction) USDAmount() decimal.Decimal {
	return t.amountIn(USD)
}

func (t *Transaction) amountIn(c Currency) decimal.Decimal {
	if t.homeCurrency == c {
		return t.homeAmount
	}
	return t.QuoteAmount()
}

// IsBasisProviding reports whether t spends USD to acquire EUR.
func (t *Transaction) IsBasisProviding() bool {
	return t.homeCurrency == USD && t.homeAmount.IsNegative()
}

// IsTaxable reports whether t disposes of EUR.
func (t *Transaction) IsTaxable() bool {
	return t.homeCurrency == EUR && t.homeAmount.IsNegative()
}

// EURBalance is the EUR amount not yet consumed by matching.
func (t *Transaction) EURBalance() decimal.Decimal {
	return t.EURAmount().Abs().Sub(t.eurDrawdown)
}

// USDBalance is the USD amount not yet consumed by matching.
func (t *Transaction) USDBalance() decimal.Decimal {
	return t.USDAmount().Abs().Sub(t.usdDrawdown)
}

// FullyMatched reports whether a taxable sale has been covered entirely by basis.
// It is false for transactions that are not taxable.
func (t *Transaction) FullyMatched() bool {
	return t.IsTaxable() && t.EURBalance().IsZero()
}

// DrawEUR consumes amount from the EUR balance.
func (t *Transaction) DrawEUR(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("transaction %d: negative drawdown %s", t.id, amount)
	}
	if amount.GreaterThan(t.EURBalance()) {
		return fmt.Errorf("transaction %d: drawing %s from balance %s: %w", t.id, amount, t.EURBalance(), ErrOverDrawn)
	}
	t.eurDrawdown = t.eurDrawdown.Add(amount)
	return nil
}

// ClearEURBalance marks the whole EUR amount as consumed and returns what was left.
func (t *Transaction) ClearEURBalance() decimal.Decimal {
	left := t.EURBalance()
	t.eurDrawdown = t.EURAmount().Abs()
	return left
}

// RecordMatch stores the basis rate of a match and adds its gain contribution.
func (t *Transaction) RecordMatch(basisRate, differential, gain decimal.Decimal) {
	t.matchedBasisRate = decimal.NewNullDecimal(basisRate)
	t.rateDifferential = decimal.NewNullDecimal(differential)
	t.gain = t.gain.Add(gain)
}

func (t *Transaction) String() string {
	return fmt.Sprintf("#%d %s %s %s @ %s", t.id, t.date.Format("2006-01-02"), t.homeCurrency, t.homeAmount, t.rate)
}
