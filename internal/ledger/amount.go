package ledger

import "regexp"

// decimalAmount matches a non-negative decimal with an optional fraction.
var decimalAmount = regexp.MustCompile(`^(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// ValidateAmount checks that total is a well-formed non-negative decimal.
//
// Amounts are stored verbatim either way; the engine only calls this when
// strict amount checking is enabled.
func ValidateAmount(total string) error {
	if !decimalAmount.MatchString(total) {
		return InvalidArgument("total amount %q is not a non-negative decimal", total)
	}
	return nil
}
