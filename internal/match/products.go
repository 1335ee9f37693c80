package match

import (
	"sort"

	"github.com/stratevo/intel-cli/internal/model"
)

// Thresholds controls the product matcher's cutoffs. Zero values fall back
// to the package defaults.
type Thresholds struct {
	Match float64
	Exact float64
}

func (t Thresholds) withDefaults() Thresholds {
	if t.Match <= 0 {
		t.Match = MatchThreshold
	}
	if t.Exact <= 0 {
		t.Exact = ExactThreshold
	}
	return t
}

// MatchProducts pairs every tenant product against every competitor product
// by name similarity. Competitor products above the match threshold are
// collected best-first; the match type is "exact" above the exact
// threshold, "similar" when any match exists, and "unique" otherwise.
//
// Pure and synchronous: inputs are never mutated, and the result must be
// recomputed wholesale whenever either list changes. O(tenant x competitor),
// which is fine for the tens-to-low-hundreds of products seen in practice.
func MatchProducts(tenant []model.Product, competitors []model.CompetitorProduct, th Thresholds) []model.ProductMatch {
	th = th.withDefaults()

	type scored struct {
		product model.CompetitorProduct
		score   float64
	}

	matches := make([]model.ProductMatch, 0, len(tenant))
	for _, tp := range tenant {
		var (
			hits []scored
			best float64
		)

		for _, cp := range competitors {
			score := Similarity(tp.Name, cp.Name)
			if score <= th.Match {
				continue
			}
			hits = append(hits, scored{product: cp, score: score})
			if score > best {
				best = score
			}
		}

		// Best-scoring competitor products first; stable so equal scores
		// keep catalog order.
		sort.SliceStable(hits, func(i, j int) bool {
			return hits[i].score > hits[j].score
		})

		var matched []model.CompetitorProduct
		for _, h := range hits {
			matched = append(matched, h.product)
		}

		matchType := model.MatchUnique
		if len(matched) > 0 {
			if best > th.Exact {
				matchType = model.MatchExact
			} else {
				matchType = model.MatchSimilar
			}
		}

		matches = append(matches, model.ProductMatch{
			TenantProduct:             tp,
			MatchedCompetitorProducts: matched,
			MatchScore:                best,
			MatchType:                 matchType,
		})
	}
	return matches
}
