package model

import (
	"fmt"
	"strings"
)

// Rule selects the order in which basis lots are matched against sales.
type Rule int

const (
	// FIFO matches the oldest basis lot first.
	FIFO Rule = iota
	// LIFO matches the newest basis lot first.
	LIFO
	// HIFO matches the basis lot with the highest rate first, regardless of date.
	HIFO
)

// Rules lists every supported accounting rule.
var Rules = []Rule{FIFO, LIFO, HIFO}

func (r Rule) String() string {
	switch r {
	case FIFO:
		return "FIFO"
	case LIFO:
		return "LIFO"
	case HIFO:
		return "HIFO"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

// Valid reports whether r is one of the supported rules.
func (r Rule) Valid() bool {
	return r == FIFO || r == LIFO || r == HIFO
}

// ParseRule parses an accounting rule token. Matching ignores case and
// surrounding whitespace; any other token is an *UnknownRuleError.
func ParseRule(s string) (Rule, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIFO":
		return FIFO, nil
	case "LIFO":
		return LIFO, nil
	case "HIFO":
		return HIFO, nil
	default:
		return 0, &UnknownRuleError{Rule: s}
	}
}
