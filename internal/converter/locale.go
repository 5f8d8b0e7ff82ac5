package converter

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// dotGrouping lists languages whose thousands separator is '.', which makes
// ',' the decimal mark and ';' the list separator in spreadsheet exports.
var dotGrouping = map[string]bool{
	"az": true, "bs": true, "ca": true, "da": true, "de": true, "el": true,
	"es": true, "eu": true, "gl": true, "hr": true, "id": true, "is": true,
	"it": true, "mk": true, "nl": true, "pt": true, "ro": true, "sl": true,
	"sr": true, "tr": true, "vi": true,
}

// regions where a dot-grouping language groups differently
var commaRegions = map[string]bool{
	"de-CH": true, "it-CH": true, "es-MX": true, "es-US": true,
}

// RegionalSeparator returns the CSV field separator spreadsheet
// applications use for locale: ';' where '.' groups thousands, ',' elsewhere.
// Both BCP 47 ("de-DE") and POSIX ("de_DE.UTF-8") spellings are accepted.
func RegionalSeparator(locale string) rune {
	tag, err := language.Parse(posixToBCP47(locale))
	if err != nil {
		return ','
	}
	base, _ := tag.Base()
	if !dotGrouping[base.String()] {
		return ','
	}
	if region, conf := tag.Region(); conf == language.Exact {
		if commaRegions[base.String()+"-"+region.String()] {
			return ','
		}
	}
	return ';'
}

// LocaleFromEnv returns the numeric locale of the process environment.
func LocaleFromEnv() string {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func posixToBCP47(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "C" || locale == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(locale, "_", "-")
}
