package notify

import "strings"

// NormalizePhone strips everything but digits and prefixes the Brazilian
// country code unless it is already there. Idempotent: normalizing an
// already-normalized number is a no-op.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "55") {
		return digits
	}
	return "55" + digits
}
