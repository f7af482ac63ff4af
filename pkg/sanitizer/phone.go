package sanitizer

import (
	"strings"

	"milovat/pkg/locale"

	"github.com/nyaruka/phonenumbers"
)

var supportedRegions = locale.PhoneRegions(locale.DefaultRegion)

// NormalizePhone formats the number as E.164. Numbers without a country prefix are tried
// against the supported regions in order. Unparseable input is returned trimmed so the
// e164 validation rule can reject it.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return phone
}
