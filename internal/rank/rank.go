// Package rank turns raw search results into ranked company candidates,
// suppressing job postings, articles, marketplaces, and other non-company
// noise before scoring.
package rank

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/stratevo/intel-cli/internal/match"
	"github.com/stratevo/intel-cli/internal/model"
	"github.com/stratevo/intel-cli/pkg/serper"
)

// Weights distributes the composite relevance score across its components.
// The nominal distribution sums to 1.0.
type Weights struct {
	Semantic float64 `yaml:"semantic" mapstructure:"semantic"`
	Position float64 `yaml:"position" mapstructure:"position"`
	Title    float64 `yaml:"title" mapstructure:"title"`
	Snippet  float64 `yaml:"snippet" mapstructure:"snippet"`
}

// DefaultWeights is the production distribution: semantic similarity
// dominates, position and keyword presence refine.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.50, Position: 0.25, Title: 0.15, Snippet: 0.10}
}

// Position scoring: rank 1 starts at 97 and each position costs 3 points,
// with a floor so deep results are not zeroed out entirely.
const (
	positionBase  = 97.0
	positionStep  = 3.0
	positionFloor = 40.0
)

// Query describes what discovery searched for; the ranker scores results
// against it.
type Query struct {
	// Terms are the sector/product keywords the search was built from.
	Terms []string
	// ExcludeHosts are caller-supplied domains to drop, unioned with the
	// built-in marketplace denylist.
	ExcludeHosts []string
}

// Ranker scores and filters search results into candidates.
type Ranker struct {
	weights Weights
	deny    Denylist
}

// New creates a Ranker. Zero-value weights fall back to the defaults; the
// extra denylist is unioned with the built-ins.
func New(weights Weights, extra Denylist) *Ranker {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Ranker{weights: weights, deny: extra.merged()}
}

// Rank converts raw search results into candidates sorted by relevance
// descending, ties broken by original discovery order. Results that are
// noise, from denied hosts, duplicates by hostname, or non-company pages
// are dropped. An empty input yields an empty (non-nil) slice; upstream
// failures are the caller's "no results" state, never an error here.
func (r *Ranker) Rank(results []serper.Result, q Query) []model.Candidate {
	deny := r.deny
	for _, h := range q.ExcludeHosts {
		deny.Hosts = append(deny.Hosts, strings.ToLower(strings.TrimSpace(h)))
	}

	candidates := make([]model.Candidate, 0, len(results))
	seen := make(map[string]struct{})

	for _, res := range results {
		text := strings.ToLower(res.Title + " " + res.Snippet + " " + res.Link)
		if containsAny(text, deny.Tokens) {
			continue
		}

		host := match.NormalizeDomain(res.Link)
		if host != "" && hostDenied(host, deny.Hosts) {
			continue
		}

		businessType := classifyBusinessType(res.Title, res.Snippet, res.Link)
		switch businessType {
		case model.BusinessJobPosting, model.BusinessArticle, model.BusinessProfile,
			model.BusinessAssociation, model.BusinessEducational:
			continue
		}

		// Dedup by normalized hostname; first occurrence wins.
		if host != "" {
			if _, dup := seen[host]; dup {
				continue
			}
			seen[host] = struct{}{}
		}

		semantic := r.semanticScore(res, q.Terms)
		candidates = append(candidates, model.Candidate{
			Name:            cleanTitle(res.Title),
			Website:         res.Link,
			Description:     res.Snippet,
			Relevance:       r.relevance(res, q.Terms, semantic),
			SimilarityScore: math.Round(semantic * 100),
			BusinessType:    businessType,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Relevance > candidates[j].Relevance
	})

	zap.L().Debug("ranked discovery results",
		zap.Int("raw", len(results)),
		zap.Int("kept", len(candidates)),
	)
	return candidates
}

// relevance combines the weighted components into a 0-100 score.
func (r *Ranker) relevance(res serper.Result, terms []string, semantic float64) float64 {
	pos := positionScore(res.Position)
	title := keywordScore(res.Title, terms)
	snippet := keywordScore(res.Snippet, terms)

	score := r.weights.Semantic*semantic*100 +
		r.weights.Position*pos +
		r.weights.Title*title +
		r.weights.Snippet*snippet

	return math.Round(math.Min(100, math.Max(0, score)))
}

// semanticScore is the best name similarity between the result title and
// any of the searched terms.
func (r *Ranker) semanticScore(res serper.Result, terms []string) float64 {
	best := 0.0
	for _, term := range terms {
		if s := match.Similarity(res.Title, term); s > best {
			best = s
		}
	}
	return best
}

// positionScore converts a 1-based rank position into a 0-100 component.
func positionScore(position int) float64 {
	if position < 1 {
		position = 1
	}
	score := positionBase - positionStep*float64(position-1)
	if score < positionFloor {
		return positionFloor
	}
	return score
}

// keywordScore is the fraction of query terms present in the text, as 0-100.
func keywordScore(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(term))) {
			matched++
		}
	}
	return 100 * float64(matched) / float64(len(terms))
}

// cleanTitle strips common search-result suffixes ("Empresa X - Home") to
// get a usable company name.
func cleanTitle(title string) string {
	for _, sep := range []string{" | ", " - ", " – "} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return strings.TrimSpace(title)
}
