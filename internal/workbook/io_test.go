package workbook

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSaveAndOpen(t *testing.T) {
	when := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	wb := New()
	sheet, err := wb.CreateSheet("Orders")
	require.NoError(t, err)
	_, err = wb.CreateSheet("Notes")
	require.NoError(t, err)

	header := sheet.CreateRow(0)
	header.SetCell(0, StringCell("Name"))
	header.SetCell(1, StringCell("Amount"))
	header.SetCell(2, StringCell("Total"))
	header.SetCell(3, StringCell("Paid"))
	header.SetCell(4, StringCell("Due"))
	sheet.SetAutoFilter("A1:E1")

	bold := wb.AddStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	row := sheet.CreateRow(1)
	row.SetHeight(30)
	name := StringCell("Ann")
	name.Style = bold
	name.Comment = &Comment{Text: "check this", Author: "sift"}
	name.Link = &Hyperlink{Target: "https://example.com", External: true}
	row.SetCell(0, name)
	row.SetCell(1, NumberCell(12.5))
	row.SetCell(2, FormulaCell("B2*2"))
	row.SetCell(3, BoolCell(true))
	row.SetCell(4, DateCell(when))

	back := sheet.CreateRow(2)
	back.SetCell(0, StringCell("Bob"))
	back.Cell(0).Link = &Hyperlink{Target: "Notes!A1"}

	sheet.AddConditionalFormat(ConditionalFormat{
		Range: "B2",
		Rules: []ConditionalRule{{
			Options: excelize.ConditionalFormatOptions{Type: "cell", Criteria: "==", Value: `""`},
			Style:   &excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{"FF0000"}, Pattern: 1}},
		}},
	})

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, wb.Save(path))

	got, err := Open(path)
	require.NoError(t, err)

	require.Equal(t, 2, got.NumSheets())
	assert.Equal(t, "Orders", got.SheetAt(0).Name())
	assert.Equal(t, "Notes", got.SheetAt(1).Name())

	orders := got.Sheet("Orders")
	assert.Equal(t, "A1:E1", orders.AutoFilter())
	assert.Equal(t, "Due", orders.Row(0).Cell(4).Text())

	r := orders.Row(1)
	require.NotNil(t, r)
	assert.Equal(t, 30.0, r.Height())

	c := r.Cell(0)
	assert.Equal(t, KindString, c.Kind)
	assert.Equal(t, "Ann", c.Str)
	require.NotNil(t, got.Style(c.Style))
	require.NotNil(t, got.Style(c.Style).Font)
	assert.True(t, got.Style(c.Style).Font.Bold)
	require.NotNil(t, c.Comment)
	assert.Equal(t, "sift", c.Comment.Author)
	assert.Contains(t, c.Comment.Text, "check this")
	require.NotNil(t, c.Link)
	assert.Equal(t, "https://example.com", c.Link.Target)
	assert.True(t, c.Link.External)

	assert.Equal(t, KindNumber, r.Cell(1).Kind)
	assert.Equal(t, 12.5, r.Cell(1).Num)

	assert.Equal(t, KindFormula, r.Cell(2).Kind)
	assert.Equal(t, "B2*2", r.Cell(2).Formula)

	assert.Equal(t, KindBool, r.Cell(3).Kind)
	assert.True(t, r.Cell(3).Bool)

	assert.Equal(t, KindDate, r.Cell(4).Kind)
	assert.True(t, when.Equal(r.Cell(4).Time), "got %v", r.Cell(4).Time)

	internal := orders.Row(2).Cell(0).Link
	require.NotNil(t, internal)
	assert.Equal(t, "Notes!A1", internal.Target)
	assert.False(t, internal.External)

	cfs := orders.ConditionalFormats()
	require.Len(t, cfs, 1)
	assert.Equal(t, "B2", cfs[0].Range)
	require.Len(t, cfs[0].Rules, 1)
	assert.Equal(t, "cell", cfs[0].Rules[0].Options.Type)
	assert.Equal(t, `""`, cfs[0].Rules[0].Options.Value)
	assert.Nil(t, cfs[0].Rules[0].Options.Format)
}

func TestSaveReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	wb := New()
	sheet, err := wb.CreateSheet("Only")
	require.NoError(t, err)
	sheet.CreateRow(0).SetCell(0, StringCell("x"))

	require.NoError(t, wb.Save(path))

	got, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Sheet("Only").Row(0).Cell(0).Text())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestSaveEmptyWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	err := New().Save(path)
	assert.ErrorIs(t, err, ErrEmptyWorkbook)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "nope.xlsx"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("Not a workbook", func(t *testing.T) {
		path := filepath.Join(dir, "text.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

		_, err := Open(path)
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestReadOrphanComment(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellStr("Sheet1", "A1", "Header"))
	require.NoError(t, f.AddComment("Sheet1", excelize.Comment{Cell: "C3", Author: "qa", Text: "fill me"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	wb, err := Read(&buf)
	require.NoError(t, err)

	c := wb.SheetAt(0).Row(2).Cell(2)
	require.NotNil(t, c)
	assert.Equal(t, KindBlank, c.Kind)
	require.NotNil(t, c.Comment)
	assert.Contains(t, c.Comment.Text, "fill me")
	assert.Equal(t, Anchor{Col1: 3, Row1: 2, Col2: 5, Row2: 6}, c.Comment.Anchor)
}

func TestWriteToBuffer(t *testing.T) {
	wb := New()
	sheet, err := wb.CreateSheet("Data")
	require.NoError(t, err)
	sheet.CreateRow(0).SetCell(0, StringCell("a"))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Sheet("Data").Row(0).Cell(0).Text())

	assert.ErrorIs(t, New().Write(&buf), ErrEmptyWorkbook)
}

func TestTrailingStyledAndLinkedCells(t *testing.T) {
	wb := New()
	sheet, err := wb.CreateSheet("Data")
	require.NoError(t, err)
	bold := wb.AddStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	first := sheet.CreateRow(0)
	first.SetCell(0, StringCell("a"))
	first.CreateCell(3).Style = bold

	second := sheet.CreateRow(1)
	second.SetCell(0, StringCell("b"))
	second.CreateCell(5).Link = &Hyperlink{Target: "https://example.com/b", External: true}

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))
	got, err := Read(&buf)
	require.NoError(t, err)
	data := got.Sheet("Data")

	styled := data.Row(0).Cell(3)
	require.NotNil(t, styled, "styled blank cell at the end of a row")
	assert.Equal(t, KindBlank, styled.Kind)
	require.NotNil(t, got.Style(styled.Style))
	assert.True(t, got.Style(styled.Style).Font.Bold)

	linked := data.Row(1).Cell(5)
	require.NotNil(t, linked, "cell holding only a hyperlink")
	require.NotNil(t, linked.Link)
	assert.Equal(t, "https://example.com/b", linked.Link.Target)

	assert.Nil(t, data.Row(1).Cell(3))
}

func TestCommentBoxSpansAnchor(t *testing.T) {
	wb := New()
	sheet, err := wb.CreateSheet("Data")
	require.NoError(t, err)

	noted := StringCell("Bob")
	noted.Comment = &Comment{Text: "missing email", Author: "sift", Anchor: Anchor{Col1: 1, Row1: 1, Col2: 4, Row2: 6}}
	sheet.CreateRow(1).SetCell(1, noted)
	tall := sheet.CreateRow(3)
	tall.SetHeight(30)
	tall.SetCell(0, StringCell("tall"))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var vml string
	for _, zf := range zr.File {
		if !strings.HasPrefix(zf.Name, "xl/drawings/vmlDrawing") {
			continue
		}
		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		vml = string(data)
	}
	require.NotEmpty(t, vml)

	m := regexp.MustCompile(`<x:Anchor>([^<]+)</x:Anchor>`).FindStringSubmatch(vml)
	require.Len(t, m, 2)
	// columns B to E and rows 2 to 7, both ending on a cell boundary
	assert.Equal(t, "1, 23, 1, 0, 4, 0, 6, 0", strings.TrimSpace(m[1]))
}

func TestCommentSize(t *testing.T) {
	wb := New()
	sheet, err := wb.CreateSheet("S")
	require.NoError(t, err)
	sheet.CreateRow(2).SetHeight(30)

	width, height := commentSize(sheet, 0, Anchor{Col1: 0, Row1: 0, Col2: 3, Row2: 5})
	assert.Equal(t, uint(192), width)
	assert.Equal(t, uint(20+20+36+20+20), height)

	width, height = commentSize(sheet, 0, Anchor{})
	assert.Zero(t, width)
	assert.Zero(t, height)
}

func TestRead1904Dates(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	date1904 := true
	require.NoError(t, f.SetWorkbookProps(&excelize.WorkbookPropsOptions{Date1904: &date1904}))
	require.NoError(t, f.SetCellFloat("Sheet1", "A1", 1000, -1, 64))
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A1", "A1", style))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	wb, err := Read(&buf)
	require.NoError(t, err)

	c := wb.SheetAt(0).Row(0).Cell(0)
	require.NotNil(t, c)
	assert.Equal(t, KindDate, c.Kind)
	want, err := excelize.ExcelDateToTime(1000, true)
	require.NoError(t, err)
	assert.True(t, want.Equal(c.Time), "got %v, want %v", c.Time, want)
	assert.Equal(t, 1906, c.Time.Year())
}
