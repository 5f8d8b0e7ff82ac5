package workbook

import (
	"strings"

	"github.com/tiendc/go-deepcopy"
	"github.com/xuri/excelize/v2"
)

// StyleID addresses a style in a Workbook's style table. Zero is the
// default style and never has an entry.
type StyleID int

// cloneStyle returns a deep copy of s so that the copy shares no pointers
// (fonts, borders, fill colors, number formats) with the original.
func cloneStyle(s *excelize.Style) *excelize.Style {
	if s == nil {
		return nil
	}
	var out excelize.Style
	if err := deepcopy.Copy(&out, s); err != nil {
		// deepcopy only fails on mismatched types, which cannot happen here
		panic(err)
	}
	return &out
}

// builtinDateFormats are the built-in number format ids that render dates
// or times.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true,
	21: true, 22: true, 27: true, 28: true, 29: true, 30: true, 31: true,
	32: true, 33: true, 34: true, 35: true, 36: true, 45: true, 46: true,
	47: true, 50: true, 51: true, 52: true, 53: true, 54: true, 55: true,
	56: true, 57: true, 58: true,
}

// isDateFormat reports whether numbers shown with s are dates.
func isDateFormat(s *excelize.Style) bool {
	if s == nil {
		return false
	}
	if s.CustomNumFmt != nil && *s.CustomNumFmt != "" {
		return isDateFormatCode(*s.CustomNumFmt)
	}
	return builtinDateFormats[s.NumFmt]
}

// isDateFormatCode looks for date/time tokens outside quoted literals,
// escapes and bracketed sections (colors, locales, conditions).
func isDateFormatCode(code string) bool {
	// only the positive section decides
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			// elapsed time such as [h] or [mm] still counts as a date format
			if end := strings.IndexByte(code[i:], ']'); end > 0 {
				tok := strings.ToLower(code[i+1 : i+end])
				if tok != "" && strings.Trim(tok, "hms") == "" {
					return true
				}
			}
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ymdhs")
}
