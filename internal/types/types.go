package types

type MergeResult struct {
	InputFiles     []string
	OutputFile     string
	OutputSize     int64
	ColumnsChecked []string
	Sheets         []string
	SheetsPruned   []string
	RowsCopied     int
}

type FileData struct {
	Path    string
	Sheet   string
	Headers []string
	Rows    [][]string
}
