// Package export renders analysis results as CSV and XLSX files for
// download and spreadsheet handoff.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/stratevo/intel-cli/internal/model"
)

// Filename builds a date-stamped export filename, e.g.
// "competitors_2026-09-01.csv".
func Filename(prefix, ext string, now time.Time) string {
	return prefix + "_" + now.Format("2006-01-02") + "." + ext
}

var competitorHeader = []string{
	"tax_id", "name", "legal_name", "sector", "city", "state",
	"registered_capital", "threat_level", "digital_presence",
	"website", "linkedin", "recent_news", "strengths", "weaknesses",
}

// competitorRows flattens enriched competitors into spreadsheet rows, one
// per competitor, in input order.
func competitorRows(comps []model.EnrichedCompetitor) [][]string {
	rows := make([][]string, 0, len(comps))
	for _, c := range comps {
		website := c.Website
		if website == "" {
			website = c.DiscoveredWebsite
		}
		rows = append(rows, []string{
			c.TaxID,
			c.Name(),
			c.LegalName,
			c.Sector,
			c.City,
			c.State,
			strconv.FormatFloat(c.RegisteredCapital, 'f', 2, 64),
			string(c.ThreatLevel),
			strconv.Itoa(c.DigitalPresenceScore),
			website,
			c.LinkedInURL,
			strconv.Itoa(len(c.RecentNews)),
			strings.Join(c.Strengths, "; "),
			strings.Join(c.Weaknesses, "; "),
		})
	}
	return rows
}

var matchHeader = []string{
	"product", "category", "match_type", "match_score", "matched_competitor_products",
}

func matchRows(matches []model.ProductMatch) [][]string {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		names := make([]string, 0, len(m.MatchedCompetitorProducts))
		for _, p := range m.MatchedCompetitorProducts {
			names = append(names, p.Name+" ("+p.CompetitorName+")")
		}
		rows = append(rows, []string{
			m.TenantProduct.Name,
			m.TenantProduct.Category,
			string(m.MatchType),
			strconv.FormatFloat(m.MatchScore, 'f', 2, 64),
			strings.Join(names, "; "),
		})
	}
	return rows
}

func summaryRows(s model.AnalysisSummary) [][]string {
	return [][]string{
		{"total_competitors", strconv.Itoa(s.TotalCompetitors)},
		{"total_capital", strconv.FormatFloat(s.TotalCapital, 'f', 2, 64)},
		{"largest_competitor", s.LargestCompetitor},
		{"largest_capital", strconv.FormatFloat(s.LargestCapital, 'f', 2, 64)},
		{"avg_digital_presence", strconv.FormatFloat(s.AvgDigitalPresence, 'f', 1, 64)},
		{"competitors_with_sites", strconv.Itoa(s.CompetitorsWithSites)},
		{"high_threat", strconv.Itoa(s.ThreatCounts[model.ThreatHigh])},
		{"medium_threat", strconv.Itoa(s.ThreatCounts[model.ThreatMedium])},
		{"low_threat", strconv.Itoa(s.ThreatCounts[model.ThreatLow])},
	}
}
