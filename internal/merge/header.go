// Package merge appends rows with missing data from source sheets into
// consolidated target sheets and flags the checked columns with
// conditional formatting.
//
// Columns are matched by normalized header text, never by position, so
// sheets whose columns come in different orders merge correctly.
package merge

import (
	"strings"

	"github.com/nconklindev/sift/internal/workbook"

	"golang.org/x/text/cases"
)

// HeaderMap maps normalized header text to a 0-based column index.
type HeaderMap map[string]int

// NormalizeHeader trims s, removes every run of whitespace and case-folds
// the result, so "  Order ID ", "orderid" and "Order  Id" are equal.
func NormalizeHeader(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), ""))
}

// BuildHeaderMap indexes the header row (row 0) of sheet. A sheet without a
// header row yields an empty map. When two columns share a header the
// right-most one wins.
func BuildHeaderMap(sheet *workbook.Sheet) HeaderMap {
	hm := make(HeaderMap)
	header := sheet.Row(0)
	if header == nil {
		return hm
	}
	header.Cells(func(col int, c *workbook.Cell) {
		key := NormalizeHeader(c.Text())
		if key == "" {
			return
		}
		hm[key] = col
	})
	return hm
}

// Index returns the column of the header called name.
func (hm HeaderMap) Index(name string) (int, bool) {
	if hm == nil {
		return 0, false
	}
	col, ok := hm[NormalizeHeader(name)]
	return col, ok && col >= 0
}
