package converter

import (
	"path/filepath"
	"strings"
)

// ExtractSheetName returns the text between the first start and the first
// end delimiter of fileName, e.g. "Sales" for "report (Sales).xlsx".
func ExtractSheetName(fileName string, start, end rune) (string, bool) {
	i := strings.IndexRune(fileName, start)
	j := strings.IndexRune(fileName, end)
	if i < 0 || j < 0 || i >= j {
		return "", false
	}
	name := strings.TrimSpace(fileName[i+len(string(start)) : j])
	return name, name != ""
}

// OutputPath returns path with its extension replaced by ext.
func OutputPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// fileStem is the base name of path without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileKind(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
