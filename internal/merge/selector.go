package merge

import "github.com/nconklindev/sift/internal/workbook"

// IsTargetRow reports whether row has at least one checked column that is
// missing, blank or an empty string. Checked columns the sheet does not
// have are ignored. A nil row or header map never qualifies.
func IsTargetRow(row *workbook.Row, columnsToCheck []string, hm HeaderMap) bool {
	if row == nil || hm == nil {
		return false
	}
	for _, name := range columnsToCheck {
		col, ok := hm.Index(name)
		if !ok {
			continue
		}
		if row.Cell(col).IsEmpty() {
			return true
		}
	}
	return false
}
