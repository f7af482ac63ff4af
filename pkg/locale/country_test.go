package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneRegions(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		want      []string
	}{
		{"default first", DefaultRegion, []string{"MX", "US"}},
		{"preferred moves to front", "US", []string{"US", "MX"}},
		{"case insensitive", "us", []string{"US", "MX"}},
		{"unknown keeps order", "IL", []string{"MX", "US"}},
		{"empty keeps order", "", []string{"MX", "US"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhoneRegions(tt.preferred))
		})
	}
}

func TestLookup(t *testing.T) {
	c, ok := Lookup("mx")
	assert.True(t, ok)
	assert.Equal(t, "America/Mexico_City", c.DefaultTimezone)

	_, ok = Lookup("XX")
	assert.False(t, ok)
}
