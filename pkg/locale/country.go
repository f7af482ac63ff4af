package locale

import "strings"

// DefaultRegion is tried first when a phone number carries no country prefix.
const DefaultRegion = "MX"

type Country struct {
	Code            string // ISO 3166-1 alpha-2
	Name            string
	DefaultTimezone string // IANA zone
}

// Countries lists the regions whose local numbering residents may use.
var Countries = []Country{
	{Code: "MX", Name: "Mexico", DefaultTimezone: "America/Mexico_City"},
	{Code: "US", Name: "United States", DefaultTimezone: "America/New_York"},
}

func Lookup(code string) (Country, bool) {
	for _, c := range Countries {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

// PhoneRegions returns the supported region codes with preferred first. An unknown
// preferred region leaves the default order.
func PhoneRegions(preferred string) []string {
	regions := make([]string, 0, len(Countries))
	if c, ok := Lookup(preferred); ok {
		regions = append(regions, c.Code)
	}
	for _, c := range Countries {
		if len(regions) > 0 && c.Code == regions[0] {
			continue
		}
		regions = append(regions, c.Code)
	}
	return regions
}
