package identifier

import (
	"regexp"
	"strings"
)

var invalidSymbolChars = regexp.MustCompile(`[^A-Z0-9_]+`)

// CleanseName normalizes a free-text label into a valid unquoted SQL
// identifier: trim, spaces and dashes to underscores, uppercase, strip
// anything outside [A-Z0-9_], and prefix an underscore when the result is
// empty or starts with a digit. CleanseName is idempotent.
func CleanseName(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	symbol = strings.ReplaceAll(symbol, " ", "_")
	symbol = strings.ReplaceAll(symbol, "-", "_")
	symbol = strings.ToUpper(symbol)
	symbol = invalidSymbolChars.ReplaceAllString(symbol, "")
	if symbol == "" || (symbol[0] >= '0' && symbol[0] <= '9') {
		return "_" + symbol
	}
	return symbol
}
