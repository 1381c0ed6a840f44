package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/fxgains/internal/model"
)

const (
	minFields   = 6 // fee column is optional
	maxFields   = 7
	colID       = 0
	colDate     = 1
	colHomeCcy  = 2
	colHomeAmt  = 3
	colQuoteCcy = 4
	colRate     = 5
	colFee      = 6
)

// delimiters are the separators Sniff chooses between, in tie-break order.
var delimiters = []rune{',', ';', '\t', '|'}

// CSV reads records from a delimited file with one header row:
// id, date, home currency, home amount, quote currency, rate[, fee].
type CSV struct {
	r io.Reader
}

// NewCSV creates a CSV source reading from r.
func NewCSV(r io.Reader) *CSV {
	return &CSV{r: r}
}

// Records reads every data row. The delimiter is sniffed from the header.
func (c *CSV) Records() ([]model.RawRecord, error) {
	data, err := io.ReadAll(c.r)
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = Sniff(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = cr.Comma != '\t'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	// Skip header row.
	var out []model.RawRecord
	for i, rec := range records[1:] {
		raw, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// UnmarshalRecord converts a CSV row to a RawRecord without validating values.
func UnmarshalRecord(rec []string) (model.RawRecord, error) {
	if len(rec) < minFields || len(rec) > maxFields {
		return model.RawRecord{}, fmt.Errorf("expected %d or %d fields, got %d", minFields, maxFields, len(rec))
	}
	raw := model.RawRecord{
		ID:            strings.TrimSpace(rec[colID]),
		Date:          strings.TrimSpace(rec[colDate]),
		HomeCurrency:  strings.ToUpper(strings.TrimSpace(rec[colHomeCcy])),
		HomeAmount:    strings.TrimSpace(rec[colHomeAmt]),
		QuoteCurrency: strings.ToUpper(strings.TrimSpace(rec[colQuoteCcy])),
		Rate:          strings.TrimSpace(rec[colRate]),
	}
	if len(rec) == maxFields {
		raw.Fee = strings.TrimSpace(rec[colFee])
	}
	return raw, nil
}

// Sniff picks the delimiter occurring most often in the first line of data,
// defaulting to a comma.
func Sniff(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
