package rank

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// builtinMarketplaceHosts are e-commerce marketplaces that surface product
// listings, never company homepages. Matched by hostname suffix.
var builtinMarketplaceHosts = []string{
	"mercadolivre.com.br",
	"americanas.com.br",
	"magazineluiza.com.br",
	"amazon.com.br",
	"amazon.com",
	"shopee.com.br",
	"aliexpress.com",
	"olx.com.br",
	"casasbahia.com.br",
	"submarino.com.br",
	"elo7.com.br",
}

// builtinNoiseTokens mark entertainment and otherwise unrelated results.
// Checked against the combined lowercase title+snippet+link text.
var builtinNoiseTokens = []string{
	"letras de",
	"letra da música",
	"cifra club",
	"youtube.com/watch",
	"spotify.com",
	"wikipedia.org",
	"dicionário",
	"o que significa",
	"receita de",
}

// Denylist holds the filtering lists applied before ranking. Caller-supplied
// entries are unioned with the built-ins.
type Denylist struct {
	Hosts  []string `yaml:"hosts"`
	Tokens []string `yaml:"tokens"`
}

// LoadDenylist reads extra denylist entries from a YAML file. A missing
// path returns an empty list, not an error.
func LoadDenylist(path string) (Denylist, error) {
	if path == "" {
		return Denylist{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Denylist{}, nil
		}
		return Denylist{}, eris.Wrapf(err, "rank: read denylist %s", path)
	}

	var d Denylist
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Denylist{}, eris.Wrapf(err, "rank: parse denylist %s", path)
	}
	return d, nil
}

// merged returns the union of built-in and supplied entries, lowercased.
func (d Denylist) merged() Denylist {
	out := Denylist{
		Hosts:  make([]string, 0, len(builtinMarketplaceHosts)+len(d.Hosts)),
		Tokens: make([]string, 0, len(builtinNoiseTokens)+len(d.Tokens)),
	}
	out.Hosts = append(out.Hosts, builtinMarketplaceHosts...)
	for _, h := range d.Hosts {
		out.Hosts = append(out.Hosts, strings.ToLower(strings.TrimSpace(h)))
	}
	out.Tokens = append(out.Tokens, builtinNoiseTokens...)
	for _, t := range d.Tokens {
		out.Tokens = append(out.Tokens, strings.ToLower(strings.TrimSpace(t)))
	}
	return out
}

// hostDenied reports whether host equals or is a subdomain of any denied host.
func hostDenied(host string, denied []string) bool {
	for _, d := range denied {
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
