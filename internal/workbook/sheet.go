package workbook

// Row is an ordered, sparse collection of cells addressed by 0-based column.
type Row struct {
	num    int
	height float64
	cells  []*Cell
}

// Num returns the row's 0-based index in its sheet.
func (r *Row) Num() int { return r.num }

// Height returns the row height in points; 0 means the sheet default.
func (r *Row) Height() float64 { return r.height }

func (r *Row) SetHeight(h float64) { r.height = h }

// Cell returns the cell at col, or nil when there is none.
func (r *Row) Cell(col int) *Cell {
	if r == nil || col < 0 || col >= len(r.cells) {
		return nil
	}
	return r.cells[col]
}

// CreateCell puts a new blank cell at col, replacing any existing one.
func (r *Row) CreateCell(col int) *Cell {
	for len(r.cells) <= col {
		r.cells = append(r.cells, nil)
	}
	c := BlankCell()
	r.cells[col] = c
	return c
}

// SetCell stores c at col.
func (r *Row) SetCell(col int, c *Cell) {
	for len(r.cells) <= col {
		r.cells = append(r.cells, nil)
	}
	r.cells[col] = c
}

// FirstCol returns the lowest populated column, or -1 for an empty row.
func (r *Row) FirstCol() int {
	for i, c := range r.cells {
		if c != nil {
			return i
		}
	}
	return -1
}

// LastCol returns one past the highest populated column, or -1 for an
// empty row.
func (r *Row) LastCol() int {
	for i := len(r.cells) - 1; i >= 0; i-- {
		if r.cells[i] != nil {
			return i + 1
		}
	}
	return -1
}

// Cells calls fn for each populated cell in column order.
func (r *Row) Cells(fn func(col int, c *Cell)) {
	for i, c := range r.cells {
		if c != nil {
			fn(i, c)
		}
	}
}

// Sheet is a named, sparse collection of rows. Row 0 is the header row.
type Sheet struct {
	name       string
	rows       []*Row
	autoFilter string
	condFmts   []ConditionalFormat
}

func (s *Sheet) Name() string { return s.name }

// Row returns the row at index i, or nil.
func (s *Sheet) Row(i int) *Row {
	if s == nil || i < 0 || i >= len(s.rows) {
		return nil
	}
	return s.rows[i]
}

// CreateRow puts a new empty row at index i, replacing any existing one.
func (s *Sheet) CreateRow(i int) *Row {
	for len(s.rows) <= i {
		s.rows = append(s.rows, nil)
	}
	r := &Row{num: i}
	s.rows[i] = r
	return r
}

// LastRowNum returns the index of the last present row, or -1.
func (s *Sheet) LastRowNum() int {
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i] != nil {
			return i
		}
	}
	return -1
}

// Rows returns the present rows in ascending order.
func (s *Sheet) Rows() []*Row {
	out := make([]*Row, 0, len(s.rows))
	for _, r := range s.rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// SetAutoFilter sets the auto-filter range, e.g. "A1:D1". An empty ref
// clears it.
func (s *Sheet) SetAutoFilter(ref string) { s.autoFilter = ref }

func (s *Sheet) AutoFilter() string { return s.autoFilter }

// ConditionalFormat is one block of rules applied to a cell range.
type ConditionalFormat struct {
	Range string
	Rules []ConditionalRule
}

func (s *Sheet) AddConditionalFormat(cf ConditionalFormat) {
	s.condFmts = append(s.condFmts, cf)
}

func (s *Sheet) ConditionalFormats() []ConditionalFormat {
	return s.condFmts
}
