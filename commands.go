package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nconklindev/sift/internal/converter"
	"github.com/nconklindev/sift/internal/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var (
		output       string
		columns      []string
		includeEmpty bool
		separator    string
		encoding     string
		workers      int
	)

	cmd := &cobra.Command{
		Use:   "merge [files...]",
		Short: "Merge the rows with missing data of several files into one workbook",
		Long: `merge copies every row that has an empty value in at least one of the
checked columns into a consolidated workbook. A file named "export (North).xlsx"
goes to the sheet "North"; other files keep their sheet names.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			flags := cmd.Flags()
			if flags.Changed("columns") {
				cfg.Merge.Columns = columns
			}
			if flags.Changed("include-empty") {
				cfg.Merge.IncludeEmptySheets = includeEmpty
			}
			if flags.Changed("workers") {
				cfg.Merge.Workers = workers
			}
			if flags.Changed("encoding") {
				cfg.CSV.Encoding = encoding
			}
			sep, err := separatorFlag(separator, cfg.Separator())
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.OutputPath()
			}

			result, err := converter.Consolidate(cmd.Context(), converter.MergeOptions{
				Inputs:             args,
				Output:             output,
				Columns:            cfg.Merge.Columns,
				IncludeEmptySheets: cfg.Merge.IncludeEmptySheets,
				CSV:                converter.CSVOptions{Separator: sep, Encoding: cfg.CSV.Encoding},
				Workers:            cfg.Merge.Workers,
				Logger:             logger,
			}, nil)
			if err != nil {
				if errors.Is(err, converter.ErrNothingToWrite) {
					fmt.Fprintln(cmd.OutOrStdout(), "No rows with missing data; nothing written.")
					return nil
				}
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output workbook (default: merge.output_dir/merge.output_name)")
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "Headers of the columns to check")
	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "Keep sheets that received no rows")
	cmd.Flags().StringVar(&separator, "separator", "", "CSV field separator (default: regional)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "CSV encoding: utf-8, windows-1252, iso-8859-1, iso-8859-15")
	cmd.Flags().IntVar(&workers, "workers", 0, "Files loaded in parallel (0: one per CPU)")

	return cmd
}

func newFormatCmd() *cobra.Command {
	var (
		output       string
		columns      []string
		includeEmpty bool
	)

	cmd := &cobra.Command{
		Use:   "format <workbook.xlsx>",
		Short: "Highlight missing values in the checked columns of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			if cmd.Flags().Changed("columns") {
				cfg.Merge.Columns = columns
			}
			if cmd.Flags().Changed("include-empty") {
				cfg.Merge.IncludeEmptySheets = includeEmpty
			}

			result, err := converter.FormatFile(args[0], output, cfg.Merge.Columns, cfg.Merge.IncludeEmptySheets)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output workbook (default: overwrite the input)")
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "Headers of the columns to check")
	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "Keep sheets without data rows")

	return cmd
}

func newCSVCmd() *cobra.Command {
	var (
		separator string
		encoding  string
	)

	cmd := &cobra.Command{
		Use:   "csv <file.csv>",
		Short: "Convert a CSV file to an XLSX workbook next to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			if cmd.Flags().Changed("encoding") {
				cfg.CSV.Encoding = encoding
			}
			sep, err := separatorFlag(separator, cfg.Separator())
			if err != nil {
				return err
			}

			out, err := converter.ConvertCSV(args[0], converter.CSVOptions{Separator: sep, Encoding: cfg.CSV.Encoding})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&separator, "separator", "", "Field separator (default: regional)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "File encoding: utf-8, windows-1252, iso-8859-1, iso-8859-15")

	return cmd
}

// separatorFlag resolves the --separator value, falling back to the
// configured one. "\t" and "tab" select a tab.
func separatorFlag(value string, fallback rune) (rune, error) {
	switch value {
	case "":
		return fallback, nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("separator must be a single character, got %q", value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}

func printResult(cmd *cobra.Command, result *types.MergeResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Output:  %s (%s)\n", result.OutputFile, humanize.Bytes(uint64(result.OutputSize)))
	fmt.Fprintf(out, "Columns: %s\n", strings.Join(result.ColumnsChecked, ", "))
	if len(result.InputFiles) > 1 || result.RowsCopied > 0 {
		fmt.Fprintf(out, "Rows:    %s from %d file(s)\n", humanize.Comma(int64(result.RowsCopied)), len(result.InputFiles))
	}
	fmt.Fprintf(out, "Sheets:  %s\n", strings.Join(result.Sheets, ", "))
	if len(result.SheetsPruned) > 0 {
		fmt.Fprintf(out, "Dropped: %s\n", strings.Join(result.SheetsPruned, ", "))
	}
}
