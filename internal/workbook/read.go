package workbook

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// defaultRowHeight is the height excelize reports for rows without a
// custom height.
const defaultRowHeight = 15.0

// filterDatabaseName is the defined name xlsx uses to record a sheet's
// auto-filter range.
const filterDatabaseName = "_xlnm._FilterDatabase"

// Open reads the xlsx file at path into a new Workbook.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}
	defer f.Close()
	return fromFile(f)
}

// Read reads an xlsx document from r into a new Workbook.
func Read(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer f.Close()
	return fromFile(f)
}

// reader carries per-file state while decoding, mainly the mapping from
// the file's style indexes to ids in the new workbook.
type reader struct {
	f      *excelize.File
	wb     *Workbook
	styles map[int]StyleID
	dates  map[int]bool

	// date1904 is set for workbooks that count serial dates from 1904.
	date1904 bool
}

func fromFile(f *excelize.File) (*Workbook, error) {
	rd := &reader{
		f:      f,
		wb:     New(),
		styles: make(map[int]StyleID),
		dates:  make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		rd.date1904 = *props.Date1904
	}
	filters := rd.autoFilters()
	for _, name := range f.GetSheetList() {
		sheet, err := rd.wb.CreateSheet(name)
		if err != nil {
			return nil, newSheetError(name, "read", err)
		}
		if err := rd.readSheet(sheet); err != nil {
			return nil, newSheetError(name, "read", err)
		}
		sheet.SetAutoFilter(filters[name])
	}
	return rd.wb, nil
}

func (rd *reader) readSheet(sheet *Sheet) error {
	name := sheet.Name()
	rows, err := rd.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}
	comments, err := rd.comments(name)
	if err != nil {
		return err
	}

	numRows, numCols := rd.usedRange(name, rows)
	for r := 0; r < numRows; r++ {
		var values []string
		if r < len(rows) {
			values = rows[r]
		}
		var row *Row
		for c := 0; c < numCols; c++ {
			var raw string
			if c < len(values) {
				raw = values[c]
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			cell, err := rd.readCell(name, ref, raw)
			if err != nil {
				return err
			}
			if cell == nil {
				continue
			}
			if cm, ok := comments[ref]; ok {
				cm.Anchor = defaultAnchor(c, r)
				cell.Comment = cm
				delete(comments, ref)
			}
			if row == nil {
				row = sheet.CreateRow(r)
			}
			row.SetCell(c, cell)
		}
		if row == nil {
			continue
		}
		if h, err := rd.f.GetRowHeight(name, r+1); err == nil && h != defaultRowHeight {
			row.SetHeight(h)
		}
	}

	// notes on cells that hold nothing else
	for ref, cm := range comments {
		c, r, err := excelize.CellNameToCoordinates(ref)
		if err != nil {
			slog.Debug("skipping comment with bad reference", "sheet", name, "cell", ref)
			continue
		}
		row := sheet.Row(r - 1)
		if row == nil {
			row = sheet.CreateRow(r - 1)
		}
		cell := row.Cell(c - 1)
		if cell == nil {
			cell = row.CreateCell(c - 1)
		}
		cm.Anchor = defaultAnchor(c-1, r-1)
		cell.Comment = cm
	}

	return rd.readConditionalFormats(sheet)
}

// usedRange returns how many rows and columns of sheet to decode: the
// larger of what GetRows returned and the sheet's recorded dimension, which
// also covers trailing cells that only hold a style or a hyperlink.
func (rd *reader) usedRange(sheet string, rows [][]string) (int, int) {
	numRows, numCols := len(rows), 0
	for _, values := range rows {
		numCols = max(numCols, len(values))
	}
	ref, err := rd.f.GetSheetDimension(sheet)
	if err != nil || ref == "" {
		return numRows, numCols
	}
	last := ref[strings.LastIndexByte(ref, ':')+1:]
	if c, r, err := excelize.CellNameToCoordinates(last); err == nil {
		numRows, numCols = max(numRows, r), max(numCols, c)
	}
	return numRows, numCols
}

// readCell decodes one cell. It returns nil for cells that carry neither a
// value, a style nor a hyperlink.
func (rd *reader) readCell(sheet, ref, raw string) (*Cell, error) {
	idx, err := rd.f.GetCellStyle(sheet, ref)
	if err != nil {
		return nil, err
	}
	style, isDate, err := rd.style(idx)
	if err != nil {
		return nil, err
	}
	formula, err := rd.f.GetCellFormula(sheet, ref)
	if err != nil {
		return nil, err
	}
	typ, err := rd.f.GetCellType(sheet, ref)
	if err != nil {
		return nil, err
	}

	var link *Hyperlink
	if ok, target, err := rd.f.GetCellHyperLink(sheet, ref); err == nil && ok && target != "" {
		link = &Hyperlink{Target: target, External: isExternalLink(target)}
	}

	var cell *Cell
	switch {
	case formula != "":
		cell = FormulaCell(formula)
	case raw == "":
		if style == 0 && link == nil {
			return nil, nil
		}
		cell = BlankCell()
	default:
		cell = decodeValue(typ, raw, isDate, rd.date1904)
	}
	cell.Style = style
	cell.Link = link
	return cell, nil
}

func decodeValue(typ excelize.CellType, raw string, isDate, date1904 bool) *Cell {
	switch typ {
	case excelize.CellTypeBool:
		return BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return DateCell(t)
			}
		}
		return StringCell(raw)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return StringCell(raw)
		}
		if isDate {
			if t, err := excelize.ExcelDateToTime(v, date1904); err == nil {
				return DateCell(t)
			}
		}
		return NumberCell(v)
	default:
		return StringCell(raw)
	}
}

// style maps a file style index to a workbook StyleID, reading and copying
// the style the first time it is seen.
func (rd *reader) style(idx int) (StyleID, bool, error) {
	if idx == 0 {
		return 0, false, nil
	}
	if id, ok := rd.styles[idx]; ok {
		return id, rd.dates[idx], nil
	}
	s, err := rd.f.GetStyle(idx)
	if err != nil {
		return 0, false, err
	}
	id := rd.wb.AddStyle(s)
	rd.styles[idx] = id
	rd.dates[idx] = isDateFormat(s)
	return id, rd.dates[idx], nil
}

func (rd *reader) comments(sheet string) (map[string]*Comment, error) {
	list, err := rd.f.GetComments(sheet)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Comment, len(list))
	for _, c := range list {
		text := c.Text
		if text == "" {
			var b strings.Builder
			for _, run := range c.Paragraph {
				b.WriteString(run.Text)
			}
			text = b.String()
		}
		out[c.Cell] = &Comment{Text: text, Author: c.Author}
	}
	return out, nil
}

func (rd *reader) readConditionalFormats(sheet *Sheet) error {
	blocks, err := rd.f.GetConditionalFormats(sheet.Name())
	if err != nil {
		return err
	}
	for ref, opts := range blocks {
		cf := ConditionalFormat{Range: ref}
		for _, o := range opts {
			rule := ConditionalRule{Options: o}
			if o.Format != nil {
				s, err := rd.f.GetConditionalStyle(*o.Format)
				if err != nil {
					slog.Debug("conditional style unreadable, keeping rule without format",
						"sheet", sheet.Name(), "range", ref, "error", err)
				} else {
					rule.Style = cloneStyle(s)
				}
			}
			rule.Options.Format = nil
			cf.Rules = append(cf.Rules, rule)
		}
		sheet.AddConditionalFormat(cf)
	}
	sortConditionalFormats(sheet.condFmts)
	return nil
}

// autoFilters returns each sheet's auto-filter range keyed by sheet name.
func (rd *reader) autoFilters() map[string]string {
	out := make(map[string]string)
	for _, dn := range rd.f.GetDefinedName() {
		if dn.Name != filterDatabaseName || dn.Scope == "" || dn.Scope == "Workbook" {
			continue
		}
		ref := dn.RefersTo
		if i := strings.LastIndexByte(ref, '!'); i >= 0 {
			ref = ref[i+1:]
		}
		out[dn.Scope] = strings.ReplaceAll(ref, "$", "")
	}
	return out
}

func isExternalLink(target string) bool {
	return strings.Contains(target, "://") || strings.HasPrefix(strings.ToLower(target), "mailto:")
}

// defaultAnchor is the comment box used when a note is created for the cell
// at (col, row) without explicit geometry.
func defaultAnchor(col, row int) Anchor {
	return Anchor{Col1: col + 1, Row1: row, Col2: col + 3, Row2: row + 4}
}

// sortConditionalFormats orders blocks by range so that decoding a file is
// deterministic.
func sortConditionalFormats(cfs []ConditionalFormat) {
	sort.SliceStable(cfs, func(i, j int) bool { return cfs[i].Range < cfs[j].Range })
}
