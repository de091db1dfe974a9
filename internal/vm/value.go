package vm

import (
	"strconv"
	"strings"
)

// Value is what execution memory holds: int64, float64, bool, or string.
type Value = interface{}

// FormatValue renders a value for PRINT: integers without decimals, floats
// with at least one decimal digit, strings verbatim, booleans as 1/0.
func FormatValue(value Value) string {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case bool:
		if v {
			return "1"
		}
		return "0"
	case string:
		return v
	}
	return "<?>"
}
