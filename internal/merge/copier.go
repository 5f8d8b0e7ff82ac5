package merge

import "github.com/nconklindev/sift/internal/workbook"

// Size of the box a copied comment is drawn in, in columns and rows.
const (
	commentCols = 3
	commentRows = 5
)

// ColumnMap maps a source column to the target column it is copied to.
// Columns missing from the map keep their position.
type ColumnMap map[int]int

func (cm ColumnMap) target(col int) int {
	if to, ok := cm[col]; ok {
		return to
	}
	return col
}

// CopyRow copies srcRow of src into dstRow of dst: the row height, then
// every column from the first to the last populated cell. Values keep their
// kind, styles are cloned into dst, comments are recreated next to the
// target cell and hyperlinks are shared.
//
// Columns with no source cell get a blank target cell.
func CopyRow(src *workbook.Workbook, srcRow *workbook.Row, dst *workbook.Workbook, dstRow *workbook.Row) {
	CopyRowAligned(src, srcRow, dst, dstRow, nil)
}

// CopyRowAligned is CopyRow with each source column written to the target
// column cols assigns it.
func CopyRowAligned(src *workbook.Workbook, srcRow *workbook.Row, dst *workbook.Workbook, dstRow *workbook.Row, cols ColumnMap) {
	if srcRow == nil || dstRow == nil {
		return
	}
	dstRow.SetHeight(srcRow.Height())

	first, last := srcRow.FirstCol(), srcRow.LastCol()
	if first < 0 {
		return
	}
	for col := first; col < last; col++ {
		to := cols.target(col)
		target := dstRow.CreateCell(to)
		source := srcRow.Cell(col)
		if source == nil {
			continue
		}
		CopyCell(src, source, dst, target, to, dstRow.Num())
	}
}

// AlignColumns matches the columns of srcSheet to those of dstSheet by
// normalized header text. Duplicate headers pair up left to right. A headed
// source column the target lacks gets its header cell appended to the
// target's header row. A source column without header text keeps its
// position when the target column there is free and unheaded, otherwise it
// is appended as well.
//
// A nil map (positional copy) is returned when either sheet has no header.
func AlignColumns(src *workbook.Workbook, srcSheet *workbook.Sheet, dst *workbook.Workbook, dstSheet *workbook.Sheet) ColumnMap {
	srcHeader, dstHeader := srcSheet.Row(0), dstSheet.Row(0)
	if srcHeader == nil || dstHeader == nil {
		return nil
	}

	free := make(map[string][]int)
	dstHeader.Cells(func(col int, c *workbook.Cell) {
		if key := NormalizeHeader(c.Text()); key != "" {
			free[key] = append(free[key], col)
		}
	})

	width := sheetWidth(srcSheet)
	next := sheetWidth(dstSheet)
	cols := make(ColumnMap, width)
	claimed := make(map[int]bool, width)
	var unheaded []int

	for col := 0; col < width; col++ {
		key := NormalizeHeader(srcHeader.Cell(col).Text())
		if key == "" {
			unheaded = append(unheaded, col)
			continue
		}
		to := next
		if slots := free[key]; len(slots) > 0 {
			to, free[key] = slots[0], slots[1:]
		} else {
			CopyCell(src, srcHeader.Cell(col), dst, dstHeader.CreateCell(to), to, 0)
			next++
		}
		cols[col] = to
		claimed[to] = true
	}

	for _, col := range unheaded {
		to := col
		if claimed[to] || NormalizeHeader(dstHeader.Cell(to).Text()) != "" {
			to = next
		}
		if to >= next {
			next = to + 1
		}
		cols[col] = to
		claimed[to] = true
	}
	return cols
}

// sheetWidth returns one past the right-most populated column of sheet.
func sheetWidth(sheet *workbook.Sheet) int {
	width := 0
	for _, row := range sheet.Rows() {
		if last := row.LastCol(); last > width {
			width = last
		}
	}
	return width
}

// CopyCell copies source (owned by src) into target (owned by dst), which
// sits at (col, row) of its sheet.
func CopyCell(src *workbook.Workbook, source *workbook.Cell, dst *workbook.Workbook, target *workbook.Cell, col, row int) {
	target.SetValue(source)
	target.Style = dst.CloneStyle(src, source.Style)

	target.Comment = nil
	if cm := source.Comment; cm != nil {
		target.Comment = &workbook.Comment{
			Text:   cm.Text,
			Author: cm.Author,
			Anchor: workbook.Anchor{
				Col1: col,
				Row1: row,
				Col2: col + commentCols,
				Row2: row + commentRows,
			},
		}
	}

	target.Link = source.Link
}
