package workbook

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input is not a readable xlsx document.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrEmptyWorkbook is returned when saving a workbook that has no sheets.
var ErrEmptyWorkbook = errors.New("workbook has no sheets")

// ErrDuplicateSheet is returned when a sheet name is already taken.
var ErrDuplicateSheet = errors.New("duplicate sheet name")

// ErrInvalidSheetName is returned for names xlsx does not allow.
var ErrInvalidSheetName = errors.New("invalid sheet name")

// SheetError represents a failure while reading or writing one sheet.
type SheetError struct {
	Sheet string
	Op    string // "read" or "write"
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("%s sheet %q: %v", e.Op, e.Sheet, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

func newSheetError(sheet, op string, err error) *SheetError {
	return &SheetError{Sheet: sheet, Op: op, Err: err}
}
