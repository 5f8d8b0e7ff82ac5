package workbook

import (
	"strconv"
	"time"
)

// Kind identifies which value a Cell holds.
type Kind int

const (
	KindBlank Kind = iota
	KindString
	KindNumber
	KindDate
	KindBool
	KindFormula
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	case KindFormula:
		return "formula"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Anchor is the 0-based cell box a comment is drawn over.
type Anchor struct {
	Col1, Row1 int
	Col2, Row2 int
}

// Comment is a cell note.
type Comment struct {
	Text   string
	Author string
	Anchor Anchor
}

// Hyperlink is a cell link. External links point outside the workbook,
// the rest are locations such as "Sheet2!A1".
type Hyperlink struct {
	Target   string
	External bool
}

// Cell is a single spreadsheet cell. Only the field matching Kind is
// meaningful.
type Cell struct {
	Kind    Kind
	Str     string
	Num     float64
	Time    time.Time
	Bool    bool
	Formula string

	Style   StyleID
	Comment *Comment
	Link    *Hyperlink
}

func BlankCell() *Cell { return &Cell{Kind: KindBlank} }

func StringCell(s string) *Cell { return &Cell{Kind: KindString, Str: s} }

func NumberCell(v float64) *Cell { return &Cell{Kind: KindNumber, Num: v} }

func DateCell(t time.Time) *Cell { return &Cell{Kind: KindDate, Time: t} }

func BoolCell(b bool) *Cell { return &Cell{Kind: KindBool, Bool: b} }

func FormulaCell(expr string) *Cell { return &Cell{Kind: KindFormula, Formula: expr} }

// Text renders the cell value as text regardless of its kind.
func (c *Cell) Text() string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case KindBlank:
		return ""
	case KindString:
		return c.Str
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindDate:
		return c.Time.Format(time.RFC3339)
	case KindBool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindFormula:
		return c.Formula
	}
	return ""
}

// IsEmpty reports whether the cell is absent, blank or an empty string.
func (c *Cell) IsEmpty() bool {
	if c == nil {
		return true
	}
	switch c.Kind {
	case KindBlank:
		return true
	case KindString:
		return c.Str == ""
	case KindNumber, KindDate, KindBool, KindFormula:
		return false
	}
	return false
}

// SetValue copies the value of src into c. Style, comment and link are kept.
// A nil src makes c blank.
func (c *Cell) SetValue(src *Cell) {
	c.Kind = KindBlank
	c.Str, c.Num, c.Time, c.Bool, c.Formula = "", 0, time.Time{}, false, ""
	if src == nil {
		return
	}
	c.Kind = src.Kind
	switch src.Kind {
	case KindBlank:
	case KindString:
		c.Str = src.Str
	case KindNumber:
		c.Num = src.Num
	case KindDate:
		c.Time = src.Time
	case KindBool:
		c.Bool = src.Bool
	case KindFormula:
		c.Formula = src.Formula
	}
}
