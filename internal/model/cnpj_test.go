package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCNPJ(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare digits", "11222333000181", "11222333000181", true},
		{"punctuated", "11.222.333/0001-81", "11222333000181", true},
		{"with surrounding text", "CNPJ: 11.222.333/0001-81", "11222333000181", true},
		{"too short", "1122233300018", "", false},
		{"too long", "112223330001811", "", false},
		{"bad check digit", "11222333000182", "", false},
		{"all same digit", "00000000000000", "", false},
		{"empty", "", "", false},
		{"letters only", "abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeCNPJ(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
