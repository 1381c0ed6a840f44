package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func record(id, date, home, amount, quote, rate string) RawRecord {
	return RawRecord{ID: id, Date: date, HomeCurrency: home, HomeAmount: amount, QuoteCurrency: quote, Rate: rate, Fee: "0"}
}

func TestNewTransaction(t *testing.T) {
	tx, err := NewTransaction(RawRecord{
		ID:            "7",
		Date:          "20210315",
		HomeCurrency:  "EUR",
		HomeAmount:    "-1000",
		QuoteCurrency: "USD",
		Rate:          "1.19",
		Fee:           "2.50",
	})
	require.NoError(t, err)

	assert.Equal(t, 7, tx.ID())
	assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), tx.Date())
	assert.Equal(t, EUR, tx.HomeCurrency())
	assert.Equal(t, USD, tx.QuoteCurrency())
	assert.True(t, tx.HomeAmount().Equal(dec("-1000")))
	assert.True(t, tx.Rate().Equal(dec("1.19")))
	assert.True(t, tx.Fee().Equal(dec("2.50")))
	assert.True(t, tx.Gain().IsZero())
	assert.False(t, tx.MatchedBasisRate().Valid)
	assert.False(t, tx.RateDifferential().Valid)
}

func TestNewTransaction_EmptyFeeIsZero(t *testing.T) {
	r := record("1", "20210101", "USD", "-100", "EUR", "0.8")
	r.Fee = ""
	tx, err := NewTransaction(r)
	require.NoError(t, err)
	assert.True(t, tx.Fee().IsZero())
}

func TestNewTransaction_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(r *RawRecord)
		field string
	}{
		{"missing id", func(r *RawRecord) { r.ID = "" }, "id"},
		{"non-integer id", func(r *RawRecord) { r.ID = "x1" }, "id"},
		{"negative id", func(r *RawRecord) { r.ID = "-3" }, "id"},
		{"id overflows int", func(r *RawRecord) { r.ID = "99999999999999999999" }, "id"},
		{"short date", func(r *RawRecord) { r.Date = "2021011" }, "date"},
		{"dashed date", func(r *RawRecord) { r.Date = "2021-01-01" }, "date"},
		{"impossible date", func(r *RawRecord) { r.Date = "20211341" }, "date"},
		{"unknown home currency", func(r *RawRecord) { r.HomeCurrency = "GBP" }, "home_currency"},
		{"non-numeric amount", func(r *RawRecord) { r.HomeAmount = "lots" }, "home_amount"},
		{"unknown quote currency", func(r *RawRecord) { r.QuoteCurrency = "JPY" }, "quote_currency"},
		{"same currencies", func(r *RawRecord) { r.QuoteCurrency = "EUR" }, "quote_currency"},
		{"zero rate", func(r *RawRecord) { r.Rate = "0" }, "rate"},
		{"negative rate", func(r *RawRecord) { r.Rate = "-1.1" }, "rate"},
		{"non-numeric fee", func(r *RawRecord) { r.Fee = "free" }, "fee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := record("1", "20210101", "EUR", "-100", "USD", "1.2")
			tt.mod(&r)

			_, err := NewTransaction(r)
			require.Error(t, err)
			var ire *InvalidRecordError
			require.True(t, errors.As(err, &ire), "want InvalidRecordError, got %T", err)
			assert.Equal(t, tt.field, ire.Field)
			assert.Equal(t, r.value(tt.field), ire.Value)
		})
	}
}

func TestNewTransaction_IDs(t *testing.T) {
	tx, err := NewTransaction(record("007", "20210101", "EUR", "-100", "USD", "1.2"))
	require.NoError(t, err)
	assert.Equal(t, 7, tx.ID(), "leading zeros are allowed")

	_, err = NewTransaction(record("99999999999999999999", "20210101", "EUR", "-100", "USD", "1.2"))
	var ire *InvalidRecordError
	require.ErrorAs(t, err, &ire)
	assert.Equal(t, "id", ire.Field)
	assert.Equal(t, "is out of range", ire.Reason)
}

func TestNewTransaction_FirstFailingFieldWins(t *testing.T) {
	r := record("1", "bad", "GBP", "x", "USD", "1")
	_, err := NewTransaction(r)
	var ire *InvalidRecordError
	require.ErrorAs(t, err, &ire)
	assert.Equal(t, "date", ire.Field)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestDerivedAmounts(t *testing.T) {
	sale := MustTransaction(record("1", "20210101", "EUR", "-1000", "USD", "1.10"))
	assert.True(t, sale.QuoteAmount().Equal(dec("1100")))
	assert.True(t, sale.EURAmount().Equal(dec("-1000")))
	assert.True(t, sale.USDAmount().Equal(dec("1100")))
	assert.True(t, sale.IsTaxable())
	assert.False(t, sale.IsBasisProviding())

	lot := MustTransaction(record("2", "20210101", "USD", "-1000", "EUR", "0.9"))
	assert.True(t, lot.QuoteAmount().Equal(dec("900")))
	assert.True(t, lot.EURAmount().Equal(dec("900")))
	assert.True(t, lot.USDAmount().Equal(dec("-1000")))
	assert.True(t, lot.IsBasisProviding())
	assert.False(t, lot.IsTaxable())
	assert.True(t, lot.EURBalance().Equal(dec("900")))
	assert.True(t, lot.USDBalance().Equal(dec("1000")))
}

func TestClassification(t *testing.T) {
	tests := []struct {
		home, amount   string
		taxable, basis bool
	}{
		{"EUR", "-10", true, false},
		{"EUR", "10", false, false},
		{"USD", "-10", false, true},
		{"USD", "10", false, false},
		{"EUR", "0", false, false},
	}
	for _, tt := range tests {
		quote := "USD"
		if tt.home == "USD" {
			quote = "EUR"
		}
		tx := MustTransaction(record("1", "20210101", tt.home, tt.amount, quote, "1"))
		assert.Equal(t, tt.taxable, tx.IsTaxable(), "%s %s taxable", tt.home, tt.amount)
		assert.Equal(t, tt.basis, tx.IsBasisProviding(), "%s %s basis", tt.home, tt.amount)
	}
}

func TestDrawEUR(t *testing.T) {
	sale := MustTransaction(record("1", "20210101", "EUR", "-1000", "USD", "1.10"))

	require.NoError(t, sale.DrawEUR(dec("400")))
	assert.True(t, sale.EURBalance().Equal(dec("600")))
	assert.False(t, sale.FullyMatched())

	err := sale.DrawEUR(dec("600.01"))
	require.ErrorIs(t, err, ErrOverDrawn)
	assert.True(t, sale.EURDrawdown().Equal(dec("400")), "failed draw must not change state")

	require.Error(t, sale.DrawEUR(dec("-1")))

	require.NoError(t, sale.DrawEUR(dec("600")))
	assert.True(t, sale.EURBalance().IsZero())
	assert.True(t, sale.FullyMatched())
}

func TestClearEURBalance(t *testing.T) {
	lot := MustTransaction(record("2", "20210101", "USD", "-1000", "EUR", "1"))
	require.NoError(t, lot.DrawEUR(dec("250")))

	left := lot.ClearEURBalance()
	assert.True(t, left.Equal(dec("750")))
	assert.True(t, lot.EURBalance().IsZero())
	assert.True(t, lot.EURDrawdown().Equal(dec("1000")))
}

func TestRecordMatch_AccumulatesGain(t *testing.T) {
	sale := MustTransaction(record("1", "20210101", "EUR", "-1000", "USD", "1.10"))
	sale.RecordMatch(dec("1.00"), dec("-0.1"), dec("-60"))
	sale.RecordMatch(dec("1.20"), dec("0.1"), dec("40"))

	assert.True(t, sale.Gain().Equal(dec("-20")))
	require.True(t, sale.MatchedBasisRate().Valid)
	assert.True(t, sale.MatchedBasisRate().Decimal.Equal(dec("1.20")))
	assert.True(t, sale.RateDifferential().Decimal.Equal(dec("0.1")))
}

func TestFullyMatched_NotTaxable(t *testing.T) {
	lot := MustTransaction(record("2", "20210101", "USD", "-1000", "EUR", "1"))
	lot.ClearEURBalance()
	assert.False(t, lot.FullyMatched())
}
