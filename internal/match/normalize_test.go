package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full url with path", "https://www.Example.com/path", "example.com"},
		{"bare host", "example.com", "example.com"},
		{"www prefix no scheme", "www.example.com", "example.com"},
		{"http scheme", "http://example.com.br", "example.com.br"},
		{"trailing slash", "https://acoforte.ind.br/", "acoforte.ind.br"},
		{"subdomain kept", "loja.empresa.com.br", "loja.empresa.com.br"},
		{"mixed case lowered", "HTTPS://WWW.EXEMPLO.COM.BR", "exemplo.com.br"},
		{"uppercase www stripped", "WWW.Example.com", "example.com"},
		{"mixed case www stripped", "Www.Example.com.br", "example.com.br"},
		{"hyphenated", "aco-forte.com.br", "aco-forte.com.br"},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"interior space", "exa mple.com", ""},
		{"tab", "example\t.com", ""},
		{"no tld", "localhost", ""},
		{"one letter tld", "example.c", ""},
		{"leading hyphen", "-example.com", ""},
		{"not a host", "just-text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDomain(tt.input))
		})
	}
}

func TestNormalizeDomain_Idempotent(t *testing.T) {
	inputs := []string{"https://www.Example.com/path", "example.com", "www.example.com"}
	for _, in := range inputs {
		once := NormalizeDomain(in)
		assert.Equal(t, once, NormalizeDomain(once), "input %q", in)
	}
}
