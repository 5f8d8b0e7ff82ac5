package merge

import (
	"github.com/nconklindev/sift/internal/workbook"

	"github.com/xuri/excelize/v2"
)

// Fill colors of the missing-data rules.
const (
	MissingFill = "FF0000"
	PresentFill = "CCFFCC"
)

// ApplyFormatting flags every checked column of every sheet in wb: each
// data cell gets a red fill when it equals "" and a light green one
// otherwise. Rows whose first cell is absent or blank are not data rows.
// Unless includeEmptySheets is set, sheets without a data row are removed.
// It returns the names of the removed sheets.
//
// Cells that already carry the rules are left alone, so running the pass
// twice does not stack duplicates.
func ApplyFormatting(wb *workbook.Workbook, columnsToCheck []string, includeEmptySheets bool) []string {
	var removed []string
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.SheetAt(i)
		if formatSheet(sheet, columnsToCheck) || includeEmptySheets {
			continue
		}
		wb.RemoveSheetAt(i)
		i--
		removed = append(removed, sheet.Name())
	}
	return removed
}

// formatSheet attaches the rules to one sheet and reports whether it has
// at least one data row in a checked column.
func formatSheet(sheet *workbook.Sheet, columnsToCheck []string) bool {
	hm := BuildHeaderMap(sheet)
	flagged := make(map[string]bool)
	for _, cf := range sheet.ConditionalFormats() {
		if isMissingDataFormat(cf) {
			flagged[cf.Range] = true
		}
	}

	hasData := false
	for _, name := range columnsToCheck {
		col, ok := hm.Index(name)
		if !ok {
			continue
		}
		for j := 1; j <= sheet.LastRowNum(); j++ {
			row := sheet.Row(j)
			if row == nil {
				continue
			}
			if first := row.Cell(0); first == nil || first.Kind == workbook.KindBlank {
				continue
			}
			if row.Cell(col) == nil {
				row.CreateCell(col)
			}
			hasData = true

			ref, err := excelize.CoordinatesToCellName(col+1, j+1)
			if err != nil || flagged[ref] {
				continue
			}
			sheet.AddConditionalFormat(MissingDataFormat(ref))
			flagged[ref] = true
		}
	}
	return hasData
}

// MissingDataFormat returns the two-rule block for the cell range ref.
func MissingDataFormat(ref string) workbook.ConditionalFormat {
	return workbook.ConditionalFormat{
		Range: ref,
		Rules: []workbook.ConditionalRule{
			emptyRule("==", MissingFill),
			emptyRule("!=", PresentFill),
		},
	}
}

func emptyRule(criteria, color string) workbook.ConditionalRule {
	return workbook.ConditionalRule{
		Options: excelize.ConditionalFormatOptions{
			Type:     "cell",
			Criteria: criteria,
			Value:    `""`,
		},
		Style: &excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		},
	}
}

func isMissingDataFormat(cf workbook.ConditionalFormat) bool {
	if len(cf.Rules) != 2 {
		return false
	}
	for i, want := range MissingDataFormat(cf.Range).Rules {
		got := cf.Rules[i]
		if got.Options.Type != want.Options.Type || got.Options.Value != want.Options.Value ||
			normalizeCriteria(got.Options.Criteria) != want.Options.Criteria {
			return false
		}
	}
	return true
}

// normalizeCriteria maps the spelled-out operators excelize reports when
// reading a file to their symbolic form.
func normalizeCriteria(c string) string {
	switch c {
	case "equal to", "equal":
		return "=="
	case "not equal to", "notEqual":
		return "!="
	}
	return c
}
