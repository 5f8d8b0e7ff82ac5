package workbook

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const defaultSheetName = "Sheet1"

// Cell sizes in pixels as excelize measures comment boxes. Column widths
// are never set, so every column has the default width.
const (
	defaultColWidthPixels  = 64
	defaultRowHeightPixels = 20
)

// Save writes the workbook to path. The document is first written to a
// temporary file next to path and renamed into place, so a failed save
// never leaves a partial file behind.
func (wb *Workbook) Save(path string) (err error) {
	f, err := wb.toFile()
	if err != nil {
		return err
	}
	defer f.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sift-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err = f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Write encodes the workbook as xlsx to w.
func (wb *Workbook) Write(w io.Writer) error {
	f, err := wb.toFile()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// writer carries per-file state while encoding, mainly the mapping from
// StyleIDs to the style indexes registered in the file.
type writer struct {
	f      *excelize.File
	wb     *Workbook
	styles map[StyleID]int
}

// pendingComment is a note whose box is sized once every row height of the
// sheet has been written.
type pendingComment struct {
	ref     string
	row     int
	comment *Comment
}

func (wb *Workbook) toFile() (*excelize.File, error) {
	if len(wb.sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	f := excelize.NewFile()
	w := &writer{f: f, wb: wb, styles: make(map[StyleID]int)}

	for i, s := range wb.sheets {
		var err error
		if i == 0 {
			err = f.SetSheetName(defaultSheetName, s.name)
		} else {
			_, err = f.NewSheet(s.name)
		}
		if err != nil {
			f.Close()
			return nil, newSheetError(s.name, "write", err)
		}
		if err := w.writeSheet(s); err != nil {
			f.Close()
			return nil, newSheetError(s.name, "write", err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (w *writer) writeSheet(s *Sheet) error {
	name := s.name
	var notes []pendingComment
	width := 0
	for _, row := range s.rows {
		if row == nil {
			continue
		}
		if h := row.Height(); h > 0 {
			if err := w.f.SetRowHeight(name, row.num+1, h); err != nil {
				return err
			}
		}
		var cellErr error
		row.Cells(func(col int, c *Cell) {
			if cellErr != nil {
				return
			}
			ref, err := w.writeCell(name, col, row.num, c)
			if err != nil {
				cellErr = err
				return
			}
			if c.Comment != nil {
				notes = append(notes, pendingComment{ref: ref, row: row.num, comment: c.Comment})
			}
		})
		if cellErr != nil {
			return cellErr
		}
		width = max(width, row.LastCol())
	}

	if last := s.LastRowNum(); last >= 0 && width > 0 {
		ref, err := excelize.CoordinatesToCellName(width, last+1)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetDimension(name, "A1:"+ref); err != nil {
			return err
		}
	}

	for _, n := range notes {
		cols, rows := commentSize(s, n.row, n.comment.Anchor)
		if err := w.f.AddComment(name, excelize.Comment{
			Cell:   n.ref,
			Author: n.comment.Author,
			Text:   n.comment.Text,
			Width:  cols,
			Height: rows,
		}); err != nil {
			return err
		}
	}

	if s.autoFilter != "" {
		if err := w.f.AutoFilter(name, s.autoFilter, nil); err != nil {
			return fmt.Errorf("auto-filter %s: %w", s.autoFilter, err)
		}
	}

	for _, cf := range s.condFmts {
		opts := make([]excelize.ConditionalFormatOptions, 0, len(cf.Rules))
		for _, rule := range cf.Rules {
			o := rule.Options
			o.Format = nil
			if rule.Style != nil {
				id, err := w.f.NewConditionalStyle(cloneStyle(rule.Style))
				if err != nil {
					return err
				}
				o.Format = &id
			}
			opts = append(opts, o)
		}
		if err := w.f.SetConditionalFormat(name, cf.Range, opts); err != nil {
			return fmt.Errorf("conditional format %s: %w", cf.Range, err)
		}
	}
	return nil
}

// writeCell writes the value, style and hyperlink of c and returns its
// reference. Comments are added by writeSheet.
func (w *writer) writeCell(sheet string, col, row int, c *Cell) (string, error) {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", err
	}

	switch c.Kind {
	case KindBlank:
		err = w.f.SetCellValue(sheet, ref, nil)
	case KindString:
		err = w.f.SetCellStr(sheet, ref, c.Str)
	case KindNumber:
		err = w.f.SetCellFloat(sheet, ref, c.Num, -1, 64)
	case KindDate:
		err = w.f.SetCellValue(sheet, ref, c.Time)
	case KindBool:
		err = w.f.SetCellBool(sheet, ref, c.Bool)
	case KindFormula:
		err = w.f.SetCellFormula(sheet, ref, c.Formula)
	}
	if err != nil {
		return "", err
	}

	if c.Style != 0 {
		idx, err := w.style(c.Style)
		if err != nil {
			return "", err
		}
		if err := w.f.SetCellStyle(sheet, ref, ref, idx); err != nil {
			return "", err
		}
	}

	if l := c.Link; l != nil && l.Target != "" {
		linkType := "Location"
		if l.External {
			linkType = "External"
		}
		if err := w.f.SetCellHyperLink(sheet, ref, l.Target, linkType); err != nil {
			return "", err
		}
	}
	return ref, nil
}

// commentSize converts the column and row span of anchor into the pixel
// size of a comment box drawn from a cell in row. A zero span leaves that
// dimension to the excelize default.
func commentSize(s *Sheet, row int, anchor Anchor) (uint, uint) {
	var width, height uint
	if span := anchor.Col2 - anchor.Col1; span > 0 {
		width = uint(span * defaultColWidthPixels)
	}
	for r := row; r < row+anchor.Row2-anchor.Row1; r++ {
		var points float64
		if rr := s.Row(r); rr != nil {
			points = rr.Height()
		}
		height += uint(rowHeightPixels(points))
	}
	return width, height
}

// rowHeightPixels mirrors how excelize converts a row height in points.
func rowHeightPixels(points float64) int {
	if points <= 0 {
		return defaultRowHeightPixels
	}
	return int(math.Ceil(4.0 / 3.4 * points))
}

// style registers a workbook style with the file on first use.
func (w *writer) style(id StyleID) (int, error) {
	if idx, ok := w.styles[id]; ok {
		return idx, nil
	}
	s := w.wb.Style(id)
	if s == nil {
		return 0, nil
	}
	idx, err := w.f.NewStyle(s)
	if err != nil {
		return 0, err
	}
	w.styles[id] = idx
	return idx, nil
}
