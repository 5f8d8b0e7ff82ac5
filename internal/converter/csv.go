package converter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nconklindev/sift/internal/workbook"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// maxLineLength bounds a single CSV line.
const maxLineLength = 4 << 20

const csvSheetName = "Sheet1"

// CSVOptions controls how delimited text is imported.
type CSVOptions struct {
	// Separator splits fields. Zero means the regional separator.
	Separator rune
	// Encoding of the file: "utf-8" (default), "windows-1252",
	// "iso-8859-1" or "iso-8859-15".
	Encoding string
}

func (o CSVOptions) separator() rune {
	if o.Separator == 0 {
		return RegionalSeparator(LocaleFromEnv())
	}
	return o.Separator
}

// CSVToWorkbook imports the UTF-8 file at path split on separator.
func CSVToWorkbook(path string, separator rune) (*workbook.Workbook, error) {
	return ImportCSV(path, CSVOptions{Separator: separator})
}

// ImportCSV reads the delimited file at path into a one-sheet workbook.
func ImportCSV(path string, opts CSVOptions) (*workbook.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// ReadCSV builds a one-sheet workbook from r: one row per line and one
// string cell per field. Quoting is not interpreted and the first line is
// not treated specially.
func ReadCSV(r io.Reader, opts CSVOptions) (*workbook.Workbook, error) {
	dec, err := csvDecoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}
	sep := string(opts.separator())

	wb := workbook.New()
	sheet, err := wb.CreateSheet(csvSheetName)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	rowNum := 0
	for scanner.Scan() {
		line := scanner.Text()
		if rowNum == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		row := sheet.CreateRow(rowNum)
		for col, field := range strings.Split(line, sep) {
			row.SetCell(col, workbook.StringCell(field))
		}
		rowNum++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return wb, nil
}

// ConvertCSV imports the CSV file at path and writes it next to the source
// with an .xlsx extension. It returns the path written.
func ConvertCSV(path string, opts CSVOptions) (string, error) {
	wb, err := ImportCSV(path, opts)
	if err != nil {
		return "", err
	}
	out := OutputPath(path, ".xlsx")
	if err := wb.Save(out); err != nil {
		return "", err
	}
	slog.Info("csv converted", "input", path, "output", out)
	return out, nil
}

func csvDecoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, name)
}
