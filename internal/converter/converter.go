package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nconklindev/sift/internal/merge"
	"github.com/nconklindev/sift/internal/types"
	"github.com/nconklindev/sift/internal/workbook"

	"golang.org/x/sync/errgroup"
)

const RowDetectionLimit = 10

// MergeOptions configures Consolidate.
type MergeOptions struct {
	Inputs             []string
	Output             string
	Columns            []string
	IncludeEmptySheets bool
	CSV                CSVOptions
	// Workers bounds how many inputs are loaded at once; 0 means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

func (o MergeOptions) validate() error {
	if len(o.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(o.Columns) == 0 {
		return ErrNoColumns
	}
	if o.Output == "" {
		return ErrNoOutput
	}
	return nil
}

func (o MergeOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// source is one loaded input file.
type source struct {
	path string
	wb   *workbook.Workbook
}

// Consolidate merges the rows with missing data of every input sheet into
// one workbook, flags the checked columns and writes it to opts.Output.
//
// Inputs are loaded concurrently, one workbook per goroutine, then merged
// one after another in input order. Each source sheet goes into the target
// sheet named in brackets in its file name ("export (North).xlsx" goes to
// "North"), or into a sheet with its own name otherwise.
func Consolidate(ctx context.Context, opts MergeOptions, progressChan chan<- float64) (*types.MergeResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.logger()

	sources, err := loadSources(ctx, opts)
	if err != nil {
		return nil, err
	}

	totalSheets := 0
	for _, src := range sources {
		totalSheets += src.wb.NumSheets()
	}

	// Helper to report progress
	done := 0
	reportProgress := func() {
		done++
		if progressChan != nil && totalSheets > 0 {
			select {
			case progressChan <- float64(done) / float64(totalSheets):
			default:
			}
		}
	}

	out := workbook.New()
	used := merge.NewUsedSheets()
	rowsCopied := 0

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bracketName, hasBracket := ExtractSheetName(filepath.Base(src.path), '(', ')')

		for _, sheet := range src.wb.Sheets() {
			targetName := sheet.Name()
			switch {
			case hasBracket:
				targetName = bracketName
			case fileKind(src.path) == ".csv":
				targetName = fileStem(src.path)
			}
			targetName = workbook.SanitizeSheetName(targetName)

			target := out.Sheet(targetName)
			if target == nil {
				if target, err = out.CreateSheet(targetName); err != nil {
					return nil, err
				}
			}

			n := merge.MergeSheet(src.wb, sheet, out, target, opts.Columns, used, opts.IncludeEmptySheets)
			rowsCopied += n
			log.Debug("sheet merged", "file", src.path, "sheet", sheet.Name(), "target", target.Name(), "rows", n)
			reportProgress()
		}
	}

	var pruned []string
	if !opts.IncludeEmptySheets {
		pruned = merge.PruneUnused(out, used)
	}
	pruned = append(pruned, merge.ApplyFormatting(out, opts.Columns, opts.IncludeEmptySheets)...)
	for _, name := range pruned {
		log.Info("sheet pruned", "sheet", name)
	}

	result := &types.MergeResult{
		InputFiles:     opts.Inputs,
		OutputFile:     opts.Output,
		ColumnsChecked: opts.Columns,
		SheetsPruned:   pruned,
		RowsCopied:     rowsCopied,
	}
	if out.NumSheets() == 0 {
		return result, ErrNothingToWrite
	}
	for _, s := range out.Sheets() {
		result.Sheets = append(result.Sheets, s.Name())
	}

	if err := save(out, opts.Output, result); err != nil {
		return nil, err
	}
	log.Info("merge complete", "output", opts.Output, "sheets", len(result.Sheets), "rows", rowsCopied)
	return result, nil
}

// FormatFile runs the formatting pass over the workbook at path and writes
// the result to output, or back to path when output is empty.
func FormatFile(path, output string, columns []string, includeEmptySheets bool) (*types.MergeResult, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	if output == "" {
		output = path
	}
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}

	result := &types.MergeResult{
		InputFiles:     []string{path},
		OutputFile:     output,
		ColumnsChecked: columns,
		SheetsPruned:   merge.ApplyFormatting(wb, columns, includeEmptySheets),
	}
	if wb.NumSheets() == 0 {
		return result, ErrNothingToWrite
	}
	for _, s := range wb.Sheets() {
		result.Sheets = append(result.Sheets, s.Name())
	}
	if err := save(wb, output, result); err != nil {
		return nil, err
	}
	return result, nil
}

func save(wb *workbook.Workbook, path string, result *types.MergeResult) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := wb.Save(path); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		result.OutputSize = info.Size()
	}
	return nil
}

func loadSources(ctx context.Context, opts MergeOptions) ([]source, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	sources := make([]source, len(opts.Inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range opts.Inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			wb, err := LoadWorkbook(path, opts.CSV)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			sources[i] = source{path: path, wb: wb}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// LoadWorkbook reads an xlsx workbook or imports a CSV file.
func LoadWorkbook(path string, csvOpts CSVOptions) (*workbook.Workbook, error) {
	switch ext := fileKind(path); ext {
	case ".csv":
		return ImportCSV(path, csvOpts)
	case ".xlsx", ".xlsm":
		return workbook.Open(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
}

// ReadFileData reads the headers and the first sample rows of the first
// sheet of a file.
func ReadFileData(filePath string, csvOpts CSVOptions) (*types.FileData, error) {
	wb, err := LoadWorkbook(filePath, csvOpts)
	if err != nil {
		return nil, err
	}
	sheet := wb.SheetAt(0)
	if sheet == nil || sheet.Row(0) == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, filepath.Base(filePath))
	}

	header := sheet.Row(0)
	width := header.LastCol()
	data := &types.FileData{
		Path:    filePath,
		Sheet:   sheet.Name(),
		Headers: rowText(header, width),
	}
	for j := 1; j <= sheet.LastRowNum() && len(data.Rows) < RowDetectionLimit; j++ {
		if row := sheet.Row(j); row != nil {
			data.Rows = append(data.Rows, rowText(row, width))
		}
	}
	return data, nil
}

func rowText(row *workbook.Row, width int) []string {
	if width < 0 {
		width = 0
	}
	out := make([]string, width)
	for i := range out {
		out[i] = row.Cell(i).Text()
	}
	return out
}

// AutoDetectColumns identifies columns with at least one empty value in the
// sample rows, the likely candidates for checking.
func AutoDetectColumns(data *types.FileData) []int {
	var detectedIndices []int

	for i, header := range data.Headers {
		if strings.TrimSpace(header) == "" {
			continue
		}
		for j := 0; j < len(data.Rows) && j < RowDetectionLimit; j++ {
			if i >= len(data.Rows[j]) || strings.TrimSpace(data.Rows[j][i]) == "" {
				detectedIndices = append(detectedIndices, i)
				break
			}
		}
	}

	return detectedIndices
}

// ReadFilesData calls ReadFileData for each of files, in order.
func ReadFilesData(files []string, csvOpts CSVOptions) ([]*types.FileData, error) {
	out := make([]*types.FileData, 0, len(files))
	for _, path := range files {
		data, err := ReadFileData(path, csvOpts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		out = append(out, data)
	}
	return out, nil
}

// UnionHeaders returns the union of the headers of files, matched by
// normalized text. The first spelling seen is kept.
func UnionHeaders(files []*types.FileData) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, data := range files {
		for _, h := range data.Headers {
			key := merge.NormalizeHeader(h)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			headers = append(headers, h)
		}
	}
	return headers
}

// CollectHeaders returns the union of the header rows of files.
func CollectHeaders(files []string, csvOpts CSVOptions) ([]string, error) {
	data, err := ReadFilesData(files, csvOpts)
	if err != nil {
		return nil, err
	}
	return UnionHeaders(data), nil
}
