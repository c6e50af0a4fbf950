package bankcsv

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount parses an amount string into signed cents. Both US and
// European separators are accepted: "1,234.56" -> 123456, "1.234,56" -> 123456,
// "-588.74" -> -58874. Currency symbols are stripped.
func parseAmount(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.Trim(clean, "$€£ ")

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")

	if lastComma > lastDot {
		// European format: dot is the thousands separator.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
