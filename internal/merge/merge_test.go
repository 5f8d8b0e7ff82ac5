package merge

import (
	"testing"

	"github.com/nconklindev/sift/internal/workbook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newSheet builds a sheet from text rows; "" leaves the cell absent and
// "<blank>" stores a blank cell.
func newSheet(t *testing.T, wb *workbook.Workbook, name string, rows ...[]string) *workbook.Sheet {
	t.Helper()
	sheet, err := wb.CreateSheet(name)
	require.NoError(t, err)
	for i, values := range rows {
		row := sheet.CreateRow(i)
		for col, v := range values {
			switch v {
			case "":
			case "<blank>":
				row.CreateCell(col)
			case "<empty>":
				row.SetCell(col, workbook.StringCell(""))
			default:
				row.SetCell(col, workbook.StringCell(v))
			}
		}
	}
	return sheet
}

func rowTexts(sheet *workbook.Sheet) [][]string {
	var out [][]string
	for _, row := range sheet.Rows() {
		var values []string
		for col := 0; col < row.LastCol(); col++ {
			values = append(values, row.Cell(col).Text())
		}
		out = append(out, values)
	}
	return out
}

func TestNormalizeHeader(t *testing.T) {
	for _, s := range []string{"  Order ID ", "orderid", "Order  Id", "ORDER\tID"} {
		assert.Equal(t, "orderid", NormalizeHeader(s), s)
	}
	assert.Equal(t, "", NormalizeHeader("   "))
}

func TestBuildHeaderMap(t *testing.T) {
	wb := workbook.New()
	sheet := newSheet(t, wb, "S",
		[]string{"Name", " Email ", "", "name", "   "},
	)

	hm := BuildHeaderMap(sheet)

	assert.Len(t, hm, 2)
	col, ok := hm.Index("NAME")
	assert.True(t, ok)
	assert.Equal(t, 3, col, "right-most duplicate wins")
	col, ok = hm.Index("email")
	assert.True(t, ok)
	assert.Equal(t, 1, col)
	_, ok = hm.Index("Phone")
	assert.False(t, ok)

	empty := newSheet(t, wb, "Empty")
	assert.Empty(t, BuildHeaderMap(empty))

	var nilMap HeaderMap
	_, ok = nilMap.Index("Name")
	assert.False(t, ok)
}

func TestIsTargetRow(t *testing.T) {
	wb := workbook.New()
	sheet := newSheet(t, wb, "S",
		[]string{"Name", "Email", "Phone"},
		[]string{"Ann", "a@x", "1"},
		[]string{"Bob", "", "2"},
		[]string{"Cy", "<blank>", "3"},
		[]string{"Di", "<empty>", "4"},
		[]string{"Ed", "e@x", ""},
	)
	hm := BuildHeaderMap(sheet)

	tests := []struct {
		name     string
		row      int
		columns  []string
		expected bool
	}{
		{"Complete row", 1, []string{"Email"}, false},
		{"Missing cell", 2, []string{"Email"}, true},
		{"Blank cell", 3, []string{"email"}, true},
		{"Empty string", 4, []string{" EMAIL "}, true},
		{"Any checked column", 5, []string{"Email", "Phone"}, true},
		{"Unchecked column ignored", 5, []string{"Email"}, false},
		{"Unknown column ignored", 2, []string{"Fax"}, false},
		{"No columns", 2, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTargetRow(sheet.Row(tt.row), tt.columns, hm))
		})
	}

	t.Run("Nil inputs", func(t *testing.T) {
		assert.False(t, IsTargetRow(nil, []string{"Email"}, hm))
		assert.False(t, IsTargetRow(sheet.Row(2), []string{"Email"}, nil))
	})
}

func TestMergeSheetSelectsRows(t *testing.T) {
	src := workbook.New()
	srcSheet := newSheet(t, src, "People",
		[]string{"Name", "Email"},
		[]string{"Ann", "a@x"},
		[]string{"Bob", "<empty>"},
	)

	dst := workbook.New()
	target, err := dst.CreateSheet("People")
	require.NoError(t, err)
	used := NewUsedSheets()

	n := MergeSheet(src, srcSheet, dst, target, []string{"Email"}, used, false)

	assert.Equal(t, 1, n)
	assert.Equal(t, [][]string{{"Name", "Email"}, {"Bob", ""}}, rowTexts(target))
	assert.True(t, used.Has("People"))
	assert.Equal(t, "A1:B1", target.AutoFilter())
}

func TestMergeSheetAlignsByHeader(t *testing.T) {
	dst := workbook.New()
	target, err := dst.CreateSheet("Out")
	require.NoError(t, err)
	used := NewUsedSheets()

	first := workbook.New()
	MergeSheet(first, newSheet(t, first, "S",
		[]string{"A", "B", "C"},
		[]string{"a1", "", "c1"},
	), dst, target, []string{"B"}, used, false)

	second := workbook.New()
	n := MergeSheet(second, newSheet(t, second, "S",
		[]string{"C", "A", "B"},
		[]string{"c2", "a2", "<blank>"},
		[]string{"c3", "a3", "b3"},
	), dst, target, []string{"b"}, used, false)

	assert.Equal(t, 1, n)
	assert.Equal(t, [][]string{
		{"A", "B", "C"},
		{"a1", "", "c1"},
		{"a2", "", "c2"},
	}, rowTexts(target))
	assert.Equal(t, "A1:C1", target.AutoFilter())
}

func TestMergeSheetAppendsUnknownColumns(t *testing.T) {
	dst := workbook.New()
	target := newSheet(t, dst, "Out",
		[]string{"Name", "Email"},
		[]string{"Ann", "<blank>"},
	)

	src := workbook.New()
	n := MergeSheet(src, newSheet(t, src, "S",
		[]string{" EMAIL ", "Phone", "name"},
		[]string{"<blank>", "555", "Bob"},
	), dst, target, []string{"Email"}, nil, false)

	assert.Equal(t, 1, n)
	assert.Equal(t, [][]string{
		{"Name", "Email", "Phone"},
		{"Ann", ""},
		{"Bob", "", "555"},
	}, rowTexts(target))
	assert.Equal(t, "A1:C1", target.AutoFilter())
}

func TestAlignColumns(t *testing.T) {
	tests := []struct {
		name     string
		target   []string
		source   []string
		expected ColumnMap
		header   []string
	}{
		{
			name:     "Same order",
			target:   []string{"A", "B"},
			source:   []string{"a", "b"},
			expected: ColumnMap{0: 0, 1: 1},
			header:   []string{"A", "B"},
		},
		{
			name:     "Reordered",
			target:   []string{"A", "B", "C"},
			source:   []string{"C", "A", "B"},
			expected: ColumnMap{0: 2, 1: 0, 2: 1},
			header:   []string{"A", "B", "C"},
		},
		{
			name:     "Duplicates pair left to right",
			target:   []string{"X", "A", "X"},
			source:   []string{"X", "X"},
			expected: ColumnMap{0: 0, 1: 2},
			header:   []string{"X", "A", "X"},
		},
		{
			name:     "Missing header appended",
			target:   []string{"A"},
			source:   []string{"B", "A"},
			expected: ColumnMap{0: 1, 1: 0},
			header:   []string{"A", "B"},
		},
		{
			name:     "Unheaded column keeps a free position",
			target:   []string{"A", "<blank>", "C"},
			source:   []string{"A", "<blank>", "C"},
			expected: ColumnMap{0: 0, 1: 1, 2: 2},
			header:   []string{"A", "", "C"},
		},
		{
			name:     "Unheaded column moved off a headed one",
			target:   []string{"A", "B"},
			source:   []string{"B", "<blank>"},
			expected: ColumnMap{0: 1, 1: 2},
			header:   []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := workbook.New()
			target := newSheet(t, dst, "T", tt.target)
			src := workbook.New()
			source := newSheet(t, src, "S", tt.source)

			assert.Equal(t, tt.expected, AlignColumns(src, source, dst, target))
			assert.Equal(t, [][]string{tt.header}, rowTexts(target))
		})
	}

	t.Run("No header", func(t *testing.T) {
		dst := workbook.New()
		target := newSheet(t, dst, "T")
		src := workbook.New()
		source := newSheet(t, src, "S", []string{"A"})
		assert.Nil(t, AlignColumns(src, source, dst, target))
	})
}

func TestMergeSheetTwiceKeepsOneHeader(t *testing.T) {
	src := workbook.New()
	srcSheet := newSheet(t, src, "S",
		[]string{"Name", "Email"},
		[]string{"Bob", "<blank>"},
	)
	dst := workbook.New()
	target, err := dst.CreateSheet("S")
	require.NoError(t, err)

	MergeSheet(src, srcSheet, dst, target, []string{"Email"}, nil, false)
	MergeSheet(src, srcSheet, dst, target, []string{"Email"}, nil, false)

	assert.Equal(t, [][]string{{"Name", "Email"}, {"Bob", ""}, {"Bob", ""}}, rowTexts(target))
}

func TestMergeSheetWithoutRows(t *testing.T) {
	src := workbook.New()
	srcSheet := newSheet(t, src, "S",
		[]string{"Name", "Email"},
		[]string{"Ann", "a@x"},
	)

	for _, includeEmpty := range []bool{false, true} {
		dst := workbook.New()
		target, err := dst.CreateSheet("S")
		require.NoError(t, err)
		used := NewUsedSheets()

		n := MergeSheet(src, srcSheet, dst, target, []string{"Email"}, used, includeEmpty)

		assert.Zero(t, n)
		assert.Equal(t, 0, target.LastRowNum(), "header is still copied")
		assert.Equal(t, includeEmpty, used.Has("S"))
	}
}

func TestCopyCell(t *testing.T) {
	src := workbook.New()
	styleID := src.AddStyle(&excelize.Style{Font: &excelize.Font{Italic: true}})
	link := &workbook.Hyperlink{Target: "https://example.com", External: true}

	source := workbook.StringCell("Bob")
	source.Style = styleID
	source.Link = link
	source.Comment = &workbook.Comment{Text: "why empty?", Author: "qa", Anchor: workbook.Anchor{Col1: 9, Row1: 9, Col2: 10, Row2: 10}}

	dst := workbook.New()
	dst.AddStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	target := workbook.BlankCell()

	CopyCell(src, source, dst, target, 2, 7)

	assert.Equal(t, workbook.KindString, target.Kind)
	assert.Equal(t, "Bob", target.Str)

	assert.Equal(t, workbook.StyleID(2), target.Style)
	require.NotNil(t, dst.Style(target.Style).Font)
	assert.True(t, dst.Style(target.Style).Font.Italic)
	assert.Equal(t, 1, src.NumStyles())

	require.NotNil(t, target.Comment)
	assert.NotSame(t, source.Comment, target.Comment)
	assert.Equal(t, "why empty?", target.Comment.Text)
	assert.Equal(t, "qa", target.Comment.Author)
	assert.Equal(t, workbook.Anchor{Col1: 2, Row1: 7, Col2: 5, Row2: 12}, target.Comment.Anchor)

	assert.Same(t, link, target.Link)
}

func TestCopyRow(t *testing.T) {
	src := workbook.New()
	sheet := newSheet(t, src, "S", []string{"", "b", "", "d"})
	sheet.Row(0).SetHeight(22)
	sheet.Row(0).Cell(3).Style = src.AddStyle(&excelize.Style{NumFmt: 2})

	dst := workbook.New()
	out := newSheet(t, dst, "Out")
	dstRow := out.CreateRow(4)

	CopyRow(src, sheet.Row(0), dst, dstRow)

	assert.Equal(t, 22.0, dstRow.Height())
	assert.Nil(t, dstRow.Cell(0), "columns before the first cell stay absent")
	assert.Equal(t, "b", dstRow.Cell(1).Text())
	require.NotNil(t, dstRow.Cell(2), "gaps become blank cells")
	assert.Equal(t, workbook.KindBlank, dstRow.Cell(2).Kind)
	assert.Equal(t, "d", dstRow.Cell(3).Text())
	assert.Equal(t, 2, dst.Style(dstRow.Cell(3).Style).NumFmt)

	assert.NotPanics(t, func() { CopyRow(src, nil, dst, dstRow) })
}

func TestPruneUnused(t *testing.T) {
	wb := workbook.New()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		newSheet(t, wb, name)
	}
	used := NewUsedSheets()
	used.Add("A")
	used.Add("D")

	removed := PruneUnused(wb, used)

	assert.Equal(t, []string{"B", "C", "E"}, removed)
	require.Equal(t, 2, wb.NumSheets())
	assert.Equal(t, "A", wb.SheetAt(0).Name())
	assert.Equal(t, "D", wb.SheetAt(1).Name())
	assert.Equal(t, []string{"A", "D"}, used.Names())
}

func TestApplyAutoFilter(t *testing.T) {
	wb := workbook.New()
	sheet := newSheet(t, wb, "S", []string{"a", "b", "c", "d"})
	ApplyAutoFilter(sheet)
	assert.Equal(t, "A1:D1", sheet.AutoFilter())

	headerless := newSheet(t, wb, "Empty")
	ApplyAutoFilter(headerless)
	assert.Empty(t, headerless.AutoFilter())
}
