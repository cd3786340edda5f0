package notify

import (
	"net/url"
	"strings"
)

// CountryCode is prefixed to local numbers.
const CountryCode = "55"

// NormalizePhone keeps digits only and prefixes the Brazilian country code
// when it is missing.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if !strings.HasPrefix(digits, CountryCode) {
		digits = CountryCode + digits
	}
	return digits
}

// DeepLink is the click-to-chat URL used when a message has to be sent by hand.
func DeepLink(phone, message string) string {
	return "https://wa.me/" + NormalizePhone(phone) + "?text=" + url.QueryEscape(message)
}
