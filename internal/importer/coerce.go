package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/planimport/internal/domain"
)

// serialEpoch is the spreadsheet date origin. Serial day 1 is 1900-01-01,
// and the epoch sits two days earlier to absorb the fictitious 1900 leap day.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerialDay bounds serial conversion to calendar year 9999.
const maxSerialDay = 2958465

var (
	timeOfDayPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?$`)

	dateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
		"01/02/2006",
	}
)

// Coerce converts one raw cell into a value compatible with the destination
// column's type category. The function is total: malformed input degrades to
// nil or a best-effort value, never an error, so a bad cell cannot abort a
// row on its own. Required-column validation happens later.
func Coerce(raw any, col domain.ColumnSchema) any {
	if isEmpty(raw) {
		return nil
	}

	switch col.Category {
	case domain.TypeDate:
		return coerceDate(raw)
	case domain.TypeTime:
		return coerceTime(raw)
	case domain.TypeBoolean:
		return coerceBoolean(raw)
	case domain.TypeInteger:
		return coerceInteger(raw)
	case domain.TypeDecimal:
		return coerceDecimal(raw)
	case domain.TypeText:
		return coerceText(raw, col.MaxLength)
	default:
		return raw
	}
}

func isEmpty(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// coerceDate accepts spreadsheet serial numbers and common date strings,
// emitting an ISO calendar date. Conversion failure yields nil.
func coerceDate(raw any) any {
	if serial, ok := asNumber(raw); ok {
		day := int(serial)
		if day <= 0 || day > maxSerialDay {
			return nil
		}
		return serialEpoch.AddDate(0, 0, day).Format("2006-01-02")
	}

	text := strings.TrimSpace(stringify(raw))
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	return nil
}

// coerceTime normalizes H:MM[:SS][ AM/PM] text to 24-hour HH:MM:SS.
func coerceTime(raw any) any {
	text, ok := raw.(string)
	if !ok {
		return nil
	}

	match := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return nil
	}

	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	second := 0
	if match[3] != "" {
		second, _ = strconv.Atoi(match[3])
	}

	suffix := strings.ToUpper(match[4])
	switch {
	case suffix == "AM" && hour == 12:
		hour = 0
	case suffix == "PM" && hour < 12:
		hour += 12
	}

	if hour > 23 || minute > 59 || second > 59 {
		return nil
	}
	return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
}

// coerceBoolean maps native booleans and the known token tables. Any other
// non-empty value deliberately coerces to true; the token tables are the
// contract, the fallback is the documented default for everything else.
func coerceBoolean(raw any) any {
	if b, ok := raw.(bool); ok {
		return b
	}

	switch strings.ToLower(strings.TrimSpace(stringify(raw))) {
	case "true", "1", "yes", "oui":
		return true
	case "false", "0", "no", "non":
		return false
	default:
		return true
	}
}

// coerceInteger parses a number, preferring int64 when the value is whole.
// A fractional value passes through as a float so the store's own type check
// decides the row's fate. Non-numeric input yields nil.
func coerceInteger(raw any) any {
	f, ok := asNumber(raw)
	if !ok {
		return nil
	}
	if math.Mod(f, 1) == 0 {
		return int64(f)
	}
	return f
}

func coerceDecimal(raw any) any {
	f, ok := asNumber(raw)
	if !ok {
		return nil
	}
	return f
}

// coerceText stringifies and trims, silently truncating to the column's
// maximum length when one is declared.
func coerceText(raw any, maxLength int) any {
	text := strings.TrimSpace(stringify(raw))
	if maxLength > 0 {
		if r := []rune(text); len(r) > maxLength {
			text = string(r[:maxLength])
		}
	}
	return text
}

func asNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
