// Package workbook holds an owned, in-memory spreadsheet model and its
// xlsx encoding.
//
// A Workbook owns its sheets and its style table. Cells refer to styles by
// StyleID, so a style can only be used in another workbook after cloning it
// with CloneStyle. None of the types here are safe for concurrent use.
package workbook

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// maxSheetNameLength is the xlsx limit on sheet names.
const maxSheetNameLength = 31

// ConditionalRule is one rule of a conditional format block. Style is the
// differential format applied when the rule matches; Options.Format is
// ignored and assigned on save.
type ConditionalRule struct {
	Options excelize.ConditionalFormatOptions
	Style   *excelize.Style
}

// Workbook is an ordered list of sheets plus the styles they use.
type Workbook struct {
	sheets []*Sheet
	styles []*excelize.Style // index 0 unused
}

// New returns an empty workbook with no sheets.
func New() *Workbook {
	return &Workbook{styles: []*excelize.Style{nil}}
}

func (wb *Workbook) NumSheets() int { return len(wb.sheets) }

// Sheets returns the sheets in workbook order.
func (wb *Workbook) Sheets() []*Sheet {
	out := make([]*Sheet, len(wb.sheets))
	copy(out, wb.sheets)
	return out
}

// SheetAt returns the sheet at index i, or nil.
func (wb *Workbook) SheetAt(i int) *Sheet {
	if i < 0 || i >= len(wb.sheets) {
		return nil
	}
	return wb.sheets[i]
}

// Sheet returns the sheet called name, or nil. Names match case-insensitively
// as they do in spreadsheet applications.
func (wb *Workbook) Sheet(name string) *Sheet {
	for _, s := range wb.sheets {
		if strings.EqualFold(s.name, name) {
			return s
		}
	}
	return nil
}

// CreateSheet appends a new empty sheet.
func (wb *Workbook) CreateSheet(name string) (*Sheet, error) {
	if err := validateSheetName(name); err != nil {
		return nil, err
	}
	if wb.Sheet(name) != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateSheet, name)
	}
	s := &Sheet{name: name}
	wb.sheets = append(wb.sheets, s)
	return s, nil
}

// RemoveSheetAt deletes the sheet at index i. Later sheets shift down by one.
func (wb *Workbook) RemoveSheetAt(i int) {
	if i < 0 || i >= len(wb.sheets) {
		return
	}
	wb.sheets = append(wb.sheets[:i], wb.sheets[i+1:]...)
}

// AddStyle stores a deep copy of s and returns its id. A nil style maps to
// the default style.
func (wb *Workbook) AddStyle(s *excelize.Style) StyleID {
	if s == nil {
		return 0
	}
	wb.styles = append(wb.styles, cloneStyle(s))
	return StyleID(len(wb.styles) - 1)
}

// Style returns a deep copy of the style with the given id, or nil for the
// default style and unknown ids.
func (wb *Workbook) Style(id StyleID) *excelize.Style {
	if id <= 0 || int(id) >= len(wb.styles) {
		return nil
	}
	return cloneStyle(wb.styles[id])
}

// CloneStyle copies style id of src into a brand-new entry of wb.
func (wb *Workbook) CloneStyle(src *Workbook, id StyleID) StyleID {
	if src == nil || id <= 0 || int(id) >= len(src.styles) {
		return 0
	}
	return wb.AddStyle(src.styles[id])
}

// NumStyles returns the number of non-default styles in the table.
func (wb *Workbook) NumStyles() int { return len(wb.styles) - 1 }

func validateSheetName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > maxSheetNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidSheetName, name)
	}
	if strings.ContainsAny(name, `:\/?*[]`) || strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return fmt.Errorf("%w: %q", ErrInvalidSheetName, name)
	}
	return nil
}

// SanitizeSheetName turns arbitrary text into a valid, possibly truncated,
// sheet name. It returns "Sheet" for text with nothing usable.
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if utf8.RuneCountInString(name) > maxSheetNameLength {
		name = string([]rune(name)[:maxSheetNameLength])
	}
	if name == "" {
		return "Sheet"
	}
	return name
}
