package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"1", "****"},
		{"1234", "****"},
		{"12345", "12*45"},
		{"A1234567", "A1****67"},
		{"1199780012345678", "11************78"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskString(tt.in), "input %q", tt.in)
	}
}

func TestMaskName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"A", "A"},
		{"Bo", "Bo"},
		{"Alice", "A***e"},
		{"Alice Uwase", "A***e U."},
		{"Jean Claude Habimana", "J**n H."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskName(tt.in), "input %q", tt.in)
	}
}

func TestMaskNameNeverLeaksMiddle(t *testing.T) {
	masked := MaskName("Mukamana")
	assert.NotContains(t, masked, "kaman")
}
