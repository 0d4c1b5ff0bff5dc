package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported to callers that need a stable, machine-readable tag.
const (
	KindEmptyInput          = "empty_input"
	KindMissingHeaderRow    = "missing_header_row"
	KindMissingColumns      = "missing_columns"
	KindColumnCountMismatch = "column_count_mismatch"
	KindInsufficientFields  = "insufficient_fields"
	KindInvalidNumericField = "invalid_numeric_field"
	KindMissingMachineID    = "missing_machine_id"
	KindNoValidRows         = "no_valid_rows"
)

var (
	// ErrEmptyInput indicates the upload has no non-blank lines.
	ErrEmptyInput = &kindError{kind: KindEmptyInput, msg: "input is empty: no non-blank lines found"}
	// ErrMissingHeaderRow indicates a header line with no data rows below it.
	ErrMissingHeaderRow = &kindError{kind: KindMissingHeaderRow, msg: "header row found but no data rows follow it"}
	// ErrNoValidRows indicates a positional upload that produced no records.
	ErrNoValidRows = &kindError{kind: KindNoValidRows, msg: "no valid rows found"}
)

type kindError struct {
	kind string
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Kind() string  { return e.kind }

// MissingColumnsError lists required header columns absent from a delimited upload.
type MissingColumnsError struct {
	Names []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Names, ", "))
}

func (e *MissingColumnsError) Kind() string { return KindMissingColumns }

// ColumnCountMismatchError reports a delimited row whose arity differs from the header.
type ColumnCountMismatchError struct {
	Row      int
	Got      int
	Expected int
}

func (e *ColumnCountMismatchError) Error() string {
	return fmt.Sprintf("row %d: expected %d columns, got %d", e.Row, e.Expected, e.Got)
}

func (e *ColumnCountMismatchError) Kind() string { return KindColumnCountMismatch }

// InsufficientFieldsError reports a positional row with fewer than four tokens.
type InsufficientFieldsError struct {
	Row int
	Got int
}

func (e *InsufficientFieldsError) Error() string {
	return fmt.Sprintf("row %d: expected at least %d fields (machine_id temp vibration runtime), got %d", e.Row, positionalFields, e.Got)
}

func (e *InsufficientFieldsError) Kind() string { return KindInsufficientFields }

// InvalidNumericFieldError reports a token that is not a finite number.
type InvalidNumericFieldError struct {
	Row   int
	Field string
	Value string
}

func (e *InvalidNumericFieldError) Error() string {
	return fmt.Sprintf("row %d: invalid numeric value for %s: %q", e.Row, e.Field, e.Value)
}

func (e *InvalidNumericFieldError) Kind() string { return KindInvalidNumericField }

// MissingMachineIDError reports a delimited row with an empty machine_id cell.
type MissingMachineIDError struct {
	Row int
}

func (e *MissingMachineIDError) Error() string {
	return fmt.Sprintf("row %d: machine_id is empty", e.Row)
}

func (e *MissingMachineIDError) Kind() string { return KindMissingMachineID }

// KindOf returns the kind tag of a parse error anywhere in err's chain, or "".
func KindOf(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}
