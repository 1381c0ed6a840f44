// Package matchlog persists an append-only CSV trail of basis lot matches.
package matchlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fxgains/internal/ledger"
	"github.com/cleared-dev/fxgains/internal/model"
)

// Header is the CSV header for a match log.
const Header = "sale_id,sale_date,lot_id,lot_date,amount,lot_rate,sale_rate,differential,gain,residual_cleared"

const (
	numFields       = 10
	colSaleID       = 0
	colSaleDate     = 1
	colLotID        = 2
	colLotDate      = 3
	colAmount       = 4
	colLotRate      = 5
	colSaleRate     = 6
	colDifferential = 7
	colGain         = 8
	colResidual     = 9
)

// MarshalMatch converts a Match to a CSV row.
func MarshalMatch(m ledger.Match) []string {
	row := make([]string, numFields)
	row[colSaleID] = strconv.Itoa(m.SaleID)
	row[colSaleDate] = m.SaleDate.Format(model.DateFormat)
	row[colLotID] = strconv.Itoa(m.LotID)
	row[colLotDate] = m.LotDate.Format(model.DateFormat)
	row[colAmount] = m.Amount.String()
	row[colLotRate] = m.LotRate.String()
	row[colSaleRate] = m.SaleRate.String()
	row[colDifferential] = m.Differential.String()
	row[colGain] = m.Gain.String()
	row[colResidual] = m.ResidualCleared.String()
	return row
}

// UnmarshalMatch converts a CSV row to a Match.
func UnmarshalMatch(record []string) (ledger.Match, error) {
	if len(record) != numFields {
		return ledger.Match{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var m ledger.Match
	var err error
	if m.SaleID, err = strconv.Atoi(record[colSaleID]); err != nil {
		return ledger.Match{}, fmt.Errorf("parsing sale_id %q: %w", record[colSaleID], err)
	}
	if m.LotID, err = strconv.Atoi(record[colLotID]); err != nil {
		return ledger.Match{}, fmt.Errorf("parsing lot_id %q: %w", record[colLotID], err)
	}
	if m.SaleDate, err = time.Parse(model.DateFormat, record[colSaleDate]); err != nil {
		return ledger.Match{}, fmt.Errorf("parsing sale_date %q: %w", record[colSaleDate], err)
	}
	if m.LotDate, err = time.Parse(model.DateFormat, record[colLotDate]); err != nil {
		return ledger.Match{}, fmt.Errorf("parsing lot_date %q: %w", record[colLotDate], err)
	}

	decimals := []struct {
		col  int
		name string
		dst  *decimal.Decimal
	}{
		{colAmount, "amount", &m.Amount},
		{colLotRate, "lot_rate", &m.LotRate},
		{colSaleRate, "sale_rate", &m.SaleRate},
		{colDifferential, "differential", &m.Differential},
		{colGain, "gain", &m.Gain},
		{colResidual, "residual_cleared", &m.ResidualCleared},
	}
	for _, d := range decimals {
		v, err := decimal.NewFromString(record[d.col])
		if err != nil {
			return ledger.Match{}, fmt.Errorf("parsing %s %q: %w", d.name, record[d.col], err)
		}
		*d.dst = v
	}
	return m, nil
}

// Append writes matches to the log at path, creating the file and header if
// needed.
func Append(path string, matches []ledger.Match) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating match log dir: %w", err)
		}
	}

	needsHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening match log: %w", err)
	}
	return writeMatches(f, needsHeader, matches)
}

// writeMatches writes matches to w and closes it. A Close error is returned
// when nothing failed before it.
func writeMatches(w io.WriteCloser, header bool, matches []ledger.Match) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing match log: %w", cerr)
		}
	}()

	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, m := range matches {
		if err := cw.Write(MarshalMatch(m)); err != nil {
			return fmt.Errorf("writing match %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all matches in the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]ledger.Match, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening match log: %w", err)
	}
	defer f.Close()

	return readMatches(f)
}

func readMatches(r io.Reader) ([]ledger.Match, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading match log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var matches []ledger.Match
	for i, rec := range records[1:] {
		m, err := UnmarshalMatch(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}
