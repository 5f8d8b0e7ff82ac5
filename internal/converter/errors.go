package converter

import "errors"

var (
	// ErrNoInputs is returned when a merge is started without source files.
	ErrNoInputs = errors.New("no input files")
	// ErrNoColumns is returned when no column to check was given.
	ErrNoColumns = errors.New("no columns to check")
	// ErrNoOutput is returned when a merge has no output path.
	ErrNoOutput = errors.New("no output file")
	// ErrNothingToWrite is returned when every output sheet was pruned.
	ErrNothingToWrite = errors.New("no sheet has rows with missing data")
	// ErrUnsupportedFile is returned for inputs that are neither csv nor xlsx.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrEmptyFile is returned when a file has no header row to read.
	ErrEmptyFile = errors.New("empty file")
	// ErrUnsupportedEncoding is returned for unknown CSV encodings.
	ErrUnsupportedEncoding = errors.New("unsupported csv encoding")
)
