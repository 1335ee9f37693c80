// Package model defines the plain, serializable records shared across the
// competitive-intelligence pipeline. None of these types carry hidden
// identity: callers own the data and pass snapshots in.
package model

import "time"

// ThreatLevel expresses relative competitive strength inferred from the
// registered-capital ratio.
type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "low"
	ThreatMedium ThreatLevel = "medium"
	ThreatHigh   ThreatLevel = "high"
)

// Competitor is a company record as imported or discovered, before any
// enrichment. TaxID, when present, is the 14-digit normalized CNPJ.
type Competitor struct {
	TaxID               string  `json:"tax_id"`
	LegalName           string  `json:"legal_name"`
	TradeName           string  `json:"trade_name,omitempty"`
	Sector              string  `json:"sector,omitempty"`
	City                string  `json:"city,omitempty"`
	State               string  `json:"state,omitempty"`
	RegisteredCapital   float64 `json:"registered_capital"`
	ActivityCode        string  `json:"activity_code,omitempty"`
	ActivityDescription string  `json:"activity_description,omitempty"`
	Website             string  `json:"website,omitempty"`
	Differentiator      string  `json:"differentiator,omitempty"`
}

// Name returns the trade name when set, falling back to the legal name.
func (c Competitor) Name() string {
	if c.TradeName != "" {
		return c.TradeName
	}
	return c.LegalName
}

// Identity is the stable per-competitor key: the tax ID when known,
// otherwise the display name. Enrichment steps and persisted rows are both
// keyed by it so name-only competitors never collide.
func (c Competitor) Identity() string {
	if c.TaxID != "" {
		return c.TaxID
	}
	return c.Name()
}

// NewsItem is a single recent-news hit for a competitor.
type NewsItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// EnrichedCompetitor is a Competitor plus derived intelligence. Each
// enrichment pass produces a new value; records are never mutated in place.
type EnrichedCompetitor struct {
	Competitor

	ThreatLevel          ThreatLevel `json:"threat_level"`
	DigitalPresenceScore int         `json:"digital_presence_score"`
	DiscoveredWebsite    string      `json:"discovered_website,omitempty"`
	LinkedInURL          string      `json:"linkedin_url,omitempty"`
	SocialURL            string      `json:"social_url,omitempty"`
	RecentNews           []NewsItem  `json:"recent_news,omitempty"`
	Strengths            []string    `json:"strengths,omitempty"`
	Weaknesses           []string    `json:"weaknesses,omitempty"`
	EnrichedAt           time.Time   `json:"enriched_at"`
}

// AnalysisSummary aggregates an enriched competitor set for reporting.
type AnalysisSummary struct {
	TotalCompetitors     int                 `json:"total_competitors"`
	TotalCapital         float64             `json:"total_capital"`
	LargestCompetitor    string              `json:"largest_competitor,omitempty"`
	LargestCapital       float64             `json:"largest_capital"`
	ThreatCounts         map[ThreatLevel]int `json:"threat_counts"`
	AvgDigitalPresence   float64             `json:"avg_digital_presence"`
	CompetitorsWithSites int                 `json:"competitors_with_sites"`
}

// Summarize computes the aggregate view of an enriched competitor list.
// The result is deterministic for a given input.
func Summarize(comps []EnrichedCompetitor) AnalysisSummary {
	s := AnalysisSummary{
		TotalCompetitors: len(comps),
		ThreatCounts:     map[ThreatLevel]int{},
	}

	var presenceSum int
	for _, c := range comps {
		s.TotalCapital += c.RegisteredCapital
		s.ThreatCounts[c.ThreatLevel]++
		presenceSum += c.DigitalPresenceScore

		if c.Website != "" || c.DiscoveredWebsite != "" {
			s.CompetitorsWithSites++
		}
		if c.RegisteredCapital > s.LargestCapital {
			s.LargestCapital = c.RegisteredCapital
			s.LargestCompetitor = c.Name()
		}
	}

	if len(comps) > 0 {
		s.AvgDigitalPresence = float64(presenceSum) / float64(len(comps))
	}
	return s
}
