package mapping

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
)

var folder = cases.Fold()

var trueTokens = map[string]struct{}{
	"true": {}, "yes": {}, "y": {}, "1": {}, "x": {}, "✓": {}, "✔": {},
	"ja": {}, "j": {}, "wahr": {},
	"oui": {}, "vrai": {},
	"si": {}, "sí": {}, "verdadero": {},
}

var falseTokens = map[string]struct{}{
	"false": {}, "no": {}, "n": {}, "0": {}, "": {},
	"nein": {}, "falsch": {},
	"non": {}, "faux": {},
	"falso": {},
}

// textValue renders a source value as trimmed text. Arrays (multi-selects,
// lookups) are joined; select-like objects contribute their name.
func textValue(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return strings.TrimSpace(r.Str)
	case gjson.Number:
		return r.Raw
	case gjson.True, gjson.False:
		return r.String()
	case gjson.JSON:
		if r.IsArray() {
			parts := make([]string, 0, len(r.Array()))
			for _, el := range r.Array() {
				if s := textValue(el); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ", ")
		}
		if name := r.Get("name"); name.Exists() {
			return textValue(name)
		}
		return ""
	default:
		return ""
	}
}

// decimalValue coerces numbers and numeric strings. Strings may carry
// currency symbols, units and localized separators: "12,50 €", "1.234,50",
// "1,234.50", "0.5 kg".
func decimalValue(r gjson.Result) (decimal.Decimal, bool) {
	switch r.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(r.Raw)
		return d, err == nil
	case gjson.String:
		return parseDecimal(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			for _, el := range r.Array() {
				if d, ok := decimalValue(el); ok {
					return d, true
				}
			}
		}
	}
	return decimal.Decimal{}, false
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == ',', r == '.', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '\'', r == ' ':
			// digit grouping
		default:
			// currency symbols and units
		}
	}

	n := normalizeSeparators(b.String())
	if n == "" || n == "-" {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(n)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// normalizeSeparators rewrites a number with "," and/or "." separators to a
// plain dot decimal. When both appear the last one is the decimal separator.
// A single comma is read as a decimal comma; repeated separators are grouping.
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}

// integerValue accepts whole numbers only; "6 Stück" yields 6, "2.5" is rejected.
func integerValue(r gjson.Result) (int64, bool) {
	d, ok := decimalValue(r)
	if !ok || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return d.IntPart(), true
}

// boolValue maps checkbox values, numbers and localized yes/no tokens.
// The second result is false when the value is not recognizable.
func boolValue(r gjson.Result) (bool, bool) {
	switch r.Type {
	case gjson.True:
		return true, true
	case gjson.False, gjson.Null:
		return false, true
	case gjson.Number:
		return r.Num != 0, true
	case gjson.String:
		token := folder.String(strings.TrimSpace(r.Str))
		if _, ok := trueTokens[token]; ok {
			return true, true
		}
		if _, ok := falseTokens[token]; ok {
			return false, true
		}
	}
	return false, false
}
