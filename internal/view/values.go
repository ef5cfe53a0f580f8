package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format returns the string form of a field value as used for search and
// default cell rendering. nil formats as "".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToFloat converts a numeric field value to float64. Numeric strings are
// accepted. NaN and infinities are rejected.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Number converts v to float64, defaulting to 0.
func Number(v any) float64 {
	f, _ := ToFloat(v)
	return f
}

// truthy reports whether v is outside the falsy set: nil, "", 0, false
// and NaN.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	}
	f, ok := ToFloat(v)
	return !ok || f != 0
}

// Money renders a currency amount with two decimals: "$12.50".
func Money(v any) string {
	return fmt.Sprintf("$%.2f", Number(v))
}

// Fixed renders a number with the given number of decimals.
func Fixed(v any, decimals int) string {
	return strconv.FormatFloat(Number(v), 'f', decimals, 64)
}

// Percent renders a ratio as a percentage with one decimal: 0.25 -> "25.0%".
func Percent(v any) string {
	return strconv.FormatFloat(Number(v)*100, 'f', 1, 64) + "%"
}
