package model

// MatchType classifies how a tenant product relates to the competitor catalog.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchSimilar MatchType = "similar"
	MatchUnique  MatchType = "unique"
)

// Product is one of the tenant's own products.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
}

// CompetitorProduct is a product extracted from a competitor's catalog.
type CompetitorProduct struct {
	Product

	CompetitorName       string  `json:"competitor_name"`
	CompetitorTaxID      string  `json:"competitor_tax_id"`
	ExtractionConfidence float64 `json:"extraction_confidence,omitempty"`
}

// ProductMatch pairs a tenant product with the competitor products it
// overlaps. Derived and recomputed whenever either product list changes;
// never persisted independently of its source lists.
type ProductMatch struct {
	TenantProduct             Product             `json:"tenant_product"`
	MatchedCompetitorProducts []CompetitorProduct `json:"matched_competitor_products,omitempty"`
	MatchScore                float64             `json:"match_score"`
	MatchType                 MatchType           `json:"match_type"`
}
