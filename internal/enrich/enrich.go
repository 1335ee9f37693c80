// Package enrich orchestrates per-competitor enrichment: registry refresh,
// web and news searches, digital-presence scoring, and threat classification.
// Provider failures degrade individual competitors; they never abort the run.
package enrich

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/stratevo/intel-cli/internal/match"
	"github.com/stratevo/intel-cli/internal/model"
	"github.com/stratevo/intel-cli/internal/resilience"
	"github.com/stratevo/intel-cli/internal/score"
	"github.com/stratevo/intel-cli/pkg/registry"
	"github.com/stratevo/intel-cli/pkg/serper"
)

// Ledger is the slice of the store the enricher needs: step idempotency,
// competitor persistence, the run event timeline, and the search cache.
type Ledger interface {
	StartStep(ctx context.Context, runID, key, name string) (*model.RunStep, error)
	FinishStep(ctx context.Context, stepID string, status model.StepStatus, result []byte, reason string) error
	StepCompleted(ctx context.Context, key string) (bool, error)
	AppendEvent(ctx context.Context, runID, level, message string) error
	UpsertCompetitor(ctx context.Context, tenantID, runID string, c model.EnrichedCompetitor) error
	ListCompetitors(ctx context.Context, tenantID, runID string) ([]model.EnrichedCompetitor, error)
	GetCachedSearch(ctx context.Context, queryHash string) ([]byte, error)
	SetCachedSearch(ctx context.Context, queryHash string, payload []byte, ttl time.Duration) error
}

// Options tunes the enrichment pass.
type Options struct {
	// MinInterval is the minimum spacing between provider calls.
	MinInterval time.Duration
	// Concurrency bounds the number of competitors enriched at once.
	Concurrency int
	// CacheTTL is how long search responses stay valid in the store.
	CacheTTL time.Duration
	// OwnCapital is the tenant's registered capital for threat classification.
	OwnCapital float64
	// Retry is the per-call retry policy for provider requests.
	Retry resilience.Policy
}

func (o Options) withDefaults() Options {
	if o.MinInterval <= 0 {
		o.MinInterval = time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 2
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 24 * time.Hour
	}
	if o.Retry == (resilience.Policy{}) {
		o.Retry = resilience.DefaultPolicy()
	}
	return o
}

// Enricher runs the enrichment pass for one tenant at a time.
type Enricher struct {
	registry registry.Client
	search   serper.Client
	ledger   Ledger
	limiter  *rate.Limiter
	opts     Options

	regBreaker    *resilience.Breaker
	searchBreaker *resilience.Breaker
}

// New builds an Enricher.
func New(reg registry.Client, search serper.Client, ledger Ledger, opts Options) *Enricher {
	opts = opts.withDefaults()
	return &Enricher{
		registry:      reg,
		search:        search,
		ledger:        ledger,
		limiter:       rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		opts:          opts,
		regBreaker:    resilience.NewBreaker("registry", 5, 30*time.Second),
		searchBreaker: resilience.NewBreaker("search", 5, 30*time.Second),
	}
}

// EnrichAll enriches every competitor, persisting each one as it finishes.
// Steps already completed under the same run are reused from the store, so
// retrying a failed run does not repeat provider calls. The returned slice
// is ordered like the input. Only context cancellation is returned as an
// error; per-competitor failures degrade that competitor.
func (e *Enricher) EnrichAll(ctx context.Context, tenantID, runID string, comps []model.Competitor) ([]model.EnrichedCompetitor, error) {
	stored, err := e.ledger.ListCompetitors(ctx, tenantID, runID)
	if err != nil {
		zap.L().Warn("enrich: load stored competitors", zap.Error(err))
	}
	previous := make(map[string]model.EnrichedCompetitor, len(stored))
	for _, c := range stored {
		previous[c.Identity()] = c
	}

	results := make([]model.EnrichedCompetitor, len(comps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, c := range comps {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := model.StepKey(runID, c.Identity())
			if done, err := e.ledger.StepCompleted(ctx, key); err == nil && done {
				if prev, ok := previous[c.Identity()]; ok {
					results[i] = prev
					e.event(ctx, runID, "info", "skipped already-enriched "+c.Name())
					return nil
				}
			}

			step, err := e.ledger.StartStep(ctx, runID, key, "enrich "+c.Name())
			if err != nil {
				zap.L().Warn("enrich: start step", zap.String("key", key), zap.Error(err))
			}

			ec, raws, enrichErr := e.enrichOne(ctx, c)
			results[i] = ec

			if err := e.ledger.UpsertCompetitor(ctx, tenantID, runID, ec); err != nil {
				zap.L().Warn("enrich: persist competitor", zap.String("tax_id", c.TaxID), zap.Error(err))
			}
			if step != nil {
				e.finishStep(ctx, step.ID, raws, enrichErr)
			}
			if enrichErr != nil {
				e.event(ctx, runID, "warn", "degraded enrichment for "+c.Name()+": "+enrichErr.Error())
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// enrichOne builds the enriched record for a single competitor, plus the raw
// provider payloads recorded on the step. The returned error marks the record
// as degraded; the record itself is always usable.
func (e *Enricher) enrichOne(ctx context.Context, c model.Competitor) (model.EnrichedCompetitor, []model.RawData, error) {
	ec := model.EnrichedCompetitor{Competitor: c, EnrichedAt: time.Now().UTC()}
	var raws []model.RawData

	if c.TaxID != "" {
		if info, err := e.lookupRegistry(ctx, c.TaxID); err != nil {
			zap.L().Warn("enrich: registry lookup",
				zap.String("tax_id", c.TaxID),
				zap.Error(err),
			)
		} else {
			applyRegistry(&ec, info)
			raws = append(raws, model.NewRegistryData(model.RegistryInfo{
				Status:              info.Status,
				State:               info.State,
				Municipality:        info.Municipality,
				SizeClass:           info.SizeClass,
				ActivityCode:        strconv.FormatInt(info.ActivityCode, 10),
				ActivityDescription: info.ActivityDescription,
				RegisteredCapital:   info.RegisteredCapital,
			}))
		}
	}

	webResults, webErr := e.cachedSearch(ctx, searchWeb, `"`+c.Name()+`"`)
	if webErr == nil {
		applyWebPresence(&ec, webResults)
	}

	newsResults, newsErr := e.cachedSearch(ctx, searchNews, c.Name())
	if newsErr == nil {
		for _, r := range newsResults {
			ec.RecentNews = append(ec.RecentNews, model.NewsItem{Title: r.Title, URL: r.Link, Date: r.Date})
		}
	}

	degraded := webErr != nil && newsErr != nil
	if degraded {
		ec.DigitalPresenceScore = score.DegradedPresence
		ec.RecentNews = nil
	} else {
		ec.DigitalPresenceScore = score.DigitalPresence(
			ec.Website != "" || ec.DiscoveredWebsite != "",
			ec.LinkedInURL != "",
			ec.SocialURL != "",
			len(ec.RecentNews),
		)
		raws = append(raws, model.NewEnrichmentData(model.EnrichmentInfo{
			Website:     ec.DiscoveredWebsite,
			LinkedInURL: ec.LinkedInURL,
			SocialURL:   ec.SocialURL,
			RecentNews:  ec.RecentNews,
		}))
	}

	ec.ThreatLevel = score.ClassifyThreat(ec.RegisteredCapital, e.opts.OwnCapital)
	ec.Strengths, ec.Weaknesses = insights(ec, e.opts.OwnCapital)

	if degraded {
		if webErr != nil {
			return ec, raws, webErr
		}
		return ec, raws, newsErr
	}
	return ec, raws, nil
}

func (e *Enricher) lookupRegistry(ctx context.Context, taxID string) (*registry.Info, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return resilience.Call(e.regBreaker, func() (*registry.Info, error) {
		return resilience.Run(ctx, e.opts.Retry, "registry.lookup", func(ctx context.Context) (*registry.Info, error) {
			return e.registry.Lookup(ctx, taxID)
		})
	})
}

// applyRegistry refreshes firmographics from the registry record without
// overwriting caller-provided fields that the registry does not know.
func applyRegistry(ec *model.EnrichedCompetitor, info *registry.Info) {
	if info.LegalName != "" {
		ec.LegalName = info.LegalName
	}
	if info.TradeName != "" && ec.TradeName == "" {
		ec.TradeName = info.TradeName
	}
	if info.RegisteredCapital > 0 {
		ec.RegisteredCapital = info.RegisteredCapital
	}
	if info.ActivityDescription != "" {
		ec.ActivityDescription = info.ActivityDescription
	}
	if info.Municipality != "" && ec.City == "" {
		ec.City = info.Municipality
	}
	if info.State != "" && ec.State == "" {
		ec.State = info.State
	}
}

// applyWebPresence scans ranked web results for the competitor's site and
// social profiles. The first non-social hit becomes the discovered website.
func applyWebPresence(ec *model.EnrichedCompetitor, results []serper.Result) {
	for _, r := range results {
		link := strings.ToLower(r.Link)
		switch {
		case strings.Contains(link, "linkedin.com/company"):
			if ec.LinkedInURL == "" {
				ec.LinkedInURL = r.Link
			}
		case strings.Contains(link, "instagram.com") || strings.Contains(link, "facebook.com"):
			if ec.SocialURL == "" {
				ec.SocialURL = r.Link
			}
		default:
			if ec.Website == "" && ec.DiscoveredWebsite == "" && match.NormalizeDomain(r.Link) != "" {
				ec.DiscoveredWebsite = r.Link
			}
		}
	}
}

func (e *Enricher) finishStep(ctx context.Context, stepID string, raws []model.RawData, enrichErr error) {
	status := model.StepComplete
	reason := ""
	if enrichErr != nil {
		status = model.StepFailed
		reason = enrichErr.Error()
	}
	var result []byte
	if len(raws) > 0 {
		var err error
		if result, err = json.Marshal(raws); err != nil {
			zap.L().Warn("enrich: marshal step result", zap.Error(err))
			result = nil
		}
	}
	if err := e.ledger.FinishStep(ctx, stepID, status, result, reason); err != nil {
		zap.L().Warn("enrich: finish step", zap.String("step_id", stepID), zap.Error(err))
	}
}

func (e *Enricher) event(ctx context.Context, runID, level, message string) {
	if err := e.ledger.AppendEvent(ctx, runID, level, message); err != nil {
		zap.L().Warn("enrich: append event", zap.Error(err))
	}
}

