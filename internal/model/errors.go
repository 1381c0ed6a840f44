package model

import "fmt"

// InvalidRecordError describes a raw record that failed validation.
type InvalidRecordError struct {
	ID     string // raw id, may itself be the invalid field
	Field  string
	Value  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %q: %s %q %s", e.ID, e.Field, e.Value, e.Reason)
}

// UnknownRuleError is returned for an accounting rule outside FIFO, LIFO and HIFO.
type UnknownRuleError struct {
	Rule string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown accounting rule %q (want FIFO, LIFO or HIFO)", e.Rule)
}
