package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBarcode(t *testing.T) {
	cases := map[string]string{
		"cust001\r\n":  "CUST001",
		"  *C-1042*  ": "C-1042",
		"\tm_77\x00":   "M_77",
		"":             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeBarcode(in), "input %q", in)
	}
}

func TestIsValidBarcode(t *testing.T) {
	assert.True(t, IsValidBarcode("CUST001"))
	assert.True(t, IsValidBarcode("C-1042"))
	assert.False(t, IsValidBarcode("AB"))
	assert.False(t, IsValidBarcode("-ABC"))
	assert.False(t, IsValidBarcode("CUST 001"))
	assert.False(t, IsValidBarcode("cust001"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone(" +1 (555) 123-4567 "))
	assert.Equal(t, "", NormalizePhone("   "))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Maria Lopez", "lop"))
	assert.False(t, ContainsFold("Maria Lopez", "smith"))
}
