package rowindex

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumn is returned when a column name is already in use.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrRowArity is returned when a row does not have one value per column.
	ErrRowArity = errors.New("row arity mismatch")
	// ErrUnsupportedConversion is returned for a column type change that is
	// not allowed.
	ErrUnsupportedConversion = errors.New("unsupported column type conversion")
	// ErrNoSuchColumn is returned when a column name is unknown.
	ErrNoSuchColumn = errors.New("no such column")
	// ErrInvalidRow is returned for a row index out of range.
	ErrInvalidRow = errors.New("invalid row index")
	// ErrInvalidColumn is returned for a column index out of range.
	ErrInvalidColumn = errors.New("invalid column index")
	// ErrConcurrentModification is returned by CreateColumn when the table
	// changed while derived values were computed.
	ErrConcurrentModification = errors.New("table modified concurrently")
)

// DuplicateColumnError names the column that already exists.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column %q", e.Column)
}

func (e *DuplicateColumnError) Unwrap() error {
	return ErrDuplicateColumn
}

// RowArityError reports a row with the wrong number of values.
//
// File and Row are set by ingestion; Row is the 1-based data row.
type RowArityError struct {
	File string
	Row  int
	Want int
	Got  int
}

func (e *RowArityError) Error() string {
	switch {
	case e.File != "":
		return fmt.Sprintf("%s: row %d has %d values, want %d", e.File, e.Row, e.Got, e.Want)
	case e.Row != 0:
		return fmt.Sprintf("row %d has %d values, want %d", e.Row, e.Got, e.Want)
	default:
		return fmt.Sprintf("row has %d values, want %d", e.Got, e.Want)
	}
}

func (e *RowArityError) Unwrap() error {
	return ErrRowArity
}

// UnsupportedConversionError reports an illegal column type change.
type UnsupportedConversionError struct {
	Column string
	From   ColumnType
	To     ColumnType
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("column %q: cannot convert %s to %s", e.Column, e.From, e.To)
}

func (e *UnsupportedConversionError) Unwrap() error {
	return ErrUnsupportedConversion
}

// NoSuchColumnError names the unknown column.
type NoSuchColumnError struct {
	Column string
}

func (e *NoSuchColumnError) Error() string {
	return fmt.Sprintf("no such column %q", e.Column)
}

func (e *NoSuchColumnError) Unwrap() error {
	return ErrNoSuchColumn
}
