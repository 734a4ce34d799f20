package booking

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "CA"

// NormalizePhone formats raw as E.164 using region for numbers typed without a country code.
// Anything that does not parse as a valid number is submitted as typed.
func NormalizePhone(raw, region string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(trimmed, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return trimmed
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
