package merge

import (
	"sort"

	"github.com/nconklindev/sift/internal/workbook"

	"github.com/xuri/excelize/v2"
)

// UsedSheets records the target sheets that received data.
type UsedSheets map[string]struct{}

func NewUsedSheets() UsedSheets { return make(UsedSheets) }

func (u UsedSheets) Add(name string) { u[name] = struct{}{} }

func (u UsedSheets) Has(name string) bool {
	_, ok := u[name]
	return ok
}

// Names returns the recorded names in sorted order.
func (u UsedSheets) Names() []string {
	names := make([]string, 0, len(u))
	for n := range u {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MergeSheet appends the qualifying rows of srcSheet (owned by src) to
// dstSheet (owned by dst) and returns how many rows it copied.
//
// The source header row is copied only when dstSheet has none yet, so
// repeated merges into one target keep a single header while data rows are
// appended in call order. Data cells land in the target column with the
// same normalized header (see AlignColumns). The target's auto-filter is
// (re)applied over its header row. dstSheet's name is added to used when it
// received rows or includeEmptySheets is set.
func MergeSheet(src *workbook.Workbook, srcSheet *workbook.Sheet, dst *workbook.Workbook, dstSheet *workbook.Sheet,
	columnsToCheck []string, used UsedSheets, includeEmptySheets bool) int {
	hm := BuildHeaderMap(srcSheet)

	if srcHeader := srcSheet.Row(0); srcHeader != nil && dstSheet.Row(0) == nil {
		CopyRow(src, srcHeader, dst, dstSheet.CreateRow(0))
	}
	cols := AlignColumns(src, srcSheet, dst, dstSheet)

	ApplyAutoFilter(dstSheet)

	next := 1
	if last := dstSheet.LastRowNum(); last >= 0 {
		next = last + 1
	}

	copied := 0
	for _, row := range srcSheet.Rows() {
		if row.Num() == 0 {
			continue
		}
		if !IsTargetRow(row, columnsToCheck, hm) {
			continue
		}
		CopyRowAligned(src, row, dst, dstSheet.CreateRow(next), cols)
		next++
		copied++
	}

	if used != nil && (includeEmptySheets || copied > 0) {
		used.Add(dstSheet.Name())
	}
	return copied
}

// ApplyAutoFilter sets the sheet's auto-filter to span the populated
// columns of its header row. Sheets without a header are left untouched.
func ApplyAutoFilter(sheet *workbook.Sheet) {
	header := sheet.Row(0)
	if header == nil {
		return
	}
	last := header.LastCol()
	if last <= 0 {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, 1)
	to, _ := excelize.CoordinatesToCellName(last, 1)
	sheet.SetAutoFilter(from + ":" + to)
}

// PruneUnused removes every sheet of wb whose name is not in used and
// returns the removed names in workbook order.
func PruneUnused(wb *workbook.Workbook, used UsedSheets) []string {
	var removed []string
	for i := 0; i < wb.NumSheets(); i++ {
		name := wb.SheetAt(i).Name()
		if used.Has(name) {
			continue
		}
		wb.RemoveSheetAt(i)
		i--
		removed = append(removed, name)
	}
	return removed
}
