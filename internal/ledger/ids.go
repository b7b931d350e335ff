package ledger

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeID returns the NFC form of a run identifier or account identity.
// Canonically equivalent spellings normalize to the same key.
func NormalizeID(id string) string {
	return norm.NFC.String(id)
}

// ValidateAccount normalizes an account identity and rejects blank values.
// Blank identities are reserved: an empty verifier means trusted mode.
func ValidateAccount(id string) (string, error) {
	n := NormalizeID(id)
	if strings.TrimSpace(n) == "" {
		return "", InvalidArgument("account identity must not be empty")
	}
	return n, nil
}
