package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
)

// DefaultStyle is the glamour style used by Pretty.
const DefaultStyle = "dark"

// Markdown writes the report as a markdown table.
type Markdown struct {
	W io.Writer
}

func (m *Markdown) Write(r Report) error {
	_, err := io.WriteString(m.W, RenderMarkdown(r))
	return err
}

// Pretty renders the markdown report for a terminal.
type Pretty struct {
	W     io.Writer
	Style string // glamour standard style name, e.g. "dark", "light", "notty"
}

func (p *Pretty) Write(r Report) error {
	style := p.Style
	if style == "" {
		style = DefaultStyle
	}
	out, err := glamour.Render(RenderMarkdown(r), style)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	_, err = io.WriteString(p.W, out)
	return err
}

// RenderMarkdown formats r as a markdown document.
func RenderMarkdown(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Realized FX Gains (%s)\n\n", r.Rule)
	fmt.Fprintln(&b, "| ID | Date | Ccy | Amount | Quote Ccy | Quote Amount | Rate | Fee | Taxable | Basis | Basis Rate | Diff | Gain |")
	fmt.Fprintln(&b, "|---:|:---|:---|---:|:---|---:|---:|---:|:---:|:---:|---:|---:|---:|")

	for _, row := range r.Rows {
		gain := ""
		if row.IsTaxable {
			gain = usd(row.Gain)
			if !row.FullyMatched {
				gain += " *"
			}
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			row.ID,
			row.Date.Format("2006-01-02"),
			row.HomeCurrency,
			row.HomeAmount.StringFixed(2),
			row.QuoteCurrency,
			row.QuoteAmount.StringFixed(2),
			row.Rate.String(),
			row.Fee.StringFixed(2),
			check(row.IsTaxable),
			check(row.IsBasisProviding),
			nullable(row.MatchedBasisRate),
			nullable(row.RateDifferential),
			gain,
		)
	}

	fmt.Fprintf(&b, "\n**Taxable gains:** %s (gains above %s)\n", usd(r.TaxableGains), usd(r.Materiality))
	fmt.Fprintf(&b, "\n**USD balance:** %s\n", usd(r.Balance))
	if len(r.Unmatched) > 0 {
		ids := make([]string, len(r.Unmatched))
		for i, id := range r.Unmatched {
			ids[i] = strconv.Itoa(id)
		}
		fmt.Fprintf(&b, "\n\\* Not fully covered by basis: %s\n", strings.Join(ids, ", "))
	}
	if r.Summary != "" {
		fmt.Fprintf(&b, "\n_%s_\n", r.Summary)
	}
	return b.String()
}

// usd formats d with go-money's USD formatter.
func usd(d decimal.Decimal) string {
	cur := money.New(0, money.USD).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func nullable(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

func check(b bool) string {
	if b {
		return "x"
	}
	return ""
}
