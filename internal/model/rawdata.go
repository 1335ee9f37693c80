package model

import "encoding/json"

// RawDataKind discriminates the producers that attach raw payloads to a
// competitor record.
type RawDataKind string

const (
	RawKindRegistry   RawDataKind = "registry"
	RawKindEnrichment RawDataKind = "enrichment"
	RawKindOpaque     RawDataKind = "opaque"
)

// RegistryInfo is the typed shape of a tax-registry lookup result.
type RegistryInfo struct {
	Status              string  `json:"status"`
	State               string  `json:"state"`
	Municipality        string  `json:"municipality"`
	SizeClass           string  `json:"size_class"`
	ActivityCode        string  `json:"activity_code"`
	ActivityDescription string  `json:"activity_description"`
	RegisteredCapital   float64 `json:"registered_capital"`
}

// EnrichmentInfo is the typed shape of a web-enrichment pass.
type EnrichmentInfo struct {
	Website     string     `json:"website,omitempty"`
	LinkedInURL string     `json:"linkedin_url,omitempty"`
	SocialURL   string     `json:"social_url,omitempty"`
	RecentNews  []NewsItem `json:"recent_news,omitempty"`
}

// RawData is a tagged union over the known raw-payload producers. Exactly
// one of the typed fields is set, matching Kind; Opaque is the fallback for
// producers the schema does not know about.
type RawData struct {
	Kind       RawDataKind     `json:"kind"`
	Registry   *RegistryInfo   `json:"registry,omitempty"`
	Enrichment *EnrichmentInfo `json:"enrichment,omitempty"`
	Opaque     json.RawMessage `json:"opaque,omitempty"`
}

// NewRegistryData wraps a registry lookup result.
func NewRegistryData(info RegistryInfo) RawData {
	return RawData{Kind: RawKindRegistry, Registry: &info}
}

// NewEnrichmentData wraps a web-enrichment result.
func NewEnrichmentData(info EnrichmentInfo) RawData {
	return RawData{Kind: RawKindEnrichment, Enrichment: &info}
}

// NewOpaqueData wraps a payload from an unknown producer as-is.
func NewOpaqueData(raw json.RawMessage) RawData {
	return RawData{Kind: RawKindOpaque, Opaque: raw}
}
