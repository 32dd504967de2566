package medicamentos

import (
	"strings"

	"medicamentos-etl/core/utils"
)

// BaseLength is the length of the registration prefix shared by every presentation of a product.
const BaseLength = 9

// NormalizeIdentifier strips non-digits and fits the result to length by truncating or
// left-padding with zeros. It returns "" when raw has no digits. NormalizeIdentifier is
// idempotent for a fixed length.
func NormalizeIdentifier(raw string, length int) string {
	digits := utils.DigitsOnly(raw)
	if digits == "" || length <= 0 {
		return digits
	}
	if len(digits) > length {
		return digits[:length]
	}
	return strings.Repeat("0", length-len(digits)) + digits
}

// BaseIdentifier returns the first BaseLength digits of a digit-only registration.
// Shorter registrations are returned unpadded so they never match a padded identifier.
func BaseIdentifier(id string) string {
	if len(id) > BaseLength {
		return id[:BaseLength]
	}
	return id
}
