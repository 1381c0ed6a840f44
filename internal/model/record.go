package model

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// DateFormat is the layout of RawRecord.Date.
const DateFormat = "20060102"

var datePattern = regexp.MustCompile(`^\d{8}$`)

// RawRecord is one unvalidated transaction row as supplied by a source.
type RawRecord struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	HomeCurrency  string `json:"home_currency"`
	HomeAmount    string `json:"home_amount"`
	QuoteCurrency string `json:"quote_currency"`
	Rate          string `json:"rate"`
	Fee           string `json:"fee"`
}

// Validate checks the shape of every field. It returns *InvalidRecordError
// for the first failing field in column order.
func (r RawRecord) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, is.Digit, validation.By(intID)),
		validation.Field(&r.Date, validation.Required, validation.Match(datePattern).Error("must be YYYYMMDD"), validation.By(calendarDate)),
		validation.Field(&r.HomeCurrency, validation.Required, validation.In(string(EUR), string(USD)).Error("must be EUR or USD")),
		validation.Field(&r.HomeAmount, validation.Required, validation.By(decimalString)),
		validation.Field(&r.QuoteCurrency, validation.Required,
			validation.In(string(EUR), string(USD)).Error("must be EUR or USD"),
			validation.NotIn(r.HomeCurrency).Error("must differ from the home currency")),
		validation.Field(&r.Rate, validation.Required, validation.By(decimalString), validation.By(positiveDecimal)),
		validation.Field(&r.Fee, validation.By(decimalString)),
	)
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	field := firstField(verrs)
	return &InvalidRecordError{
		ID:     r.ID,
		Field:  field,
		Value:  r.value(field),
		Reason: verrs[field].Error(),
	}
}

var columnOrder = []string{"id", "date", "home_currency", "home_amount", "quote_currency", "rate", "fee"}

func firstField(verrs validation.Errors) string {
	for _, name := range columnOrder {
		if _, ok := verrs[name]; ok {
			return name
		}
	}
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

func (r RawRecord) value(field string) string {
	switch field {
	case "id":
		return r.ID
	case "date":
		return r.Date
	case "home_currency":
		return r.HomeCurrency
	case "home_amount":
		return r.HomeAmount
	case "quote_currency":
		return r.QuoteCurrency
	case "rate":
		return r.Rate
	case "fee":
		return r.Fee
	}
	return ""
}

// intID rejects IDs that overflow int. Leading zeros are allowed, so "007" is 7.
func intID(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return errors.New("is out of range")
	}
	return nil
}

// decimalString accepts an empty string; pair it with validation.Required where needed.
func decimalString(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return errors.New("must be a decimal number")
	}
	return nil
}

func positiveDecimal(value interface{}) error {
	s, _ := value.(string)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	if !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func calendarDate(value interface{}) error {
	s, _ := value.(string)
	if _, err := time.Parse(DateFormat, s); err != nil {
		return errors.New("is not a calendar date")
	}
	return nil
}
