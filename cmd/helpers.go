package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stratevo/intel-cli/internal/enrich"
	"github.com/stratevo/intel-cli/internal/model"
	"github.com/stratevo/intel-cli/internal/rank"
	"github.com/stratevo/intel-cli/internal/store"
	"github.com/stratevo/intel-cli/pkg/registry"
	"github.com/stratevo/intel-cli/pkg/serper"
)

// initStore opens the configured backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func newSearchClient() serper.Client {
	return serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL))
}

func newRegistryClient() registry.Client {
	return registry.NewClient(registry.WithBaseURL(cfg.Registry.BaseURL))
}

func newEnricher(st store.Store, ownCapital float64) *enrich.Enricher {
	if ownCapital <= 0 {
		ownCapital = cfg.Analysis.DefaultOwnCapital
	}
	return enrich.New(newRegistryClient(), newSearchClient(), st, enrich.Options{
		MinInterval: time.Duration(cfg.Enrich.MinIntervalMs) * time.Millisecond,
		Concurrency: cfg.Enrich.Concurrency,
		CacheTTL:    time.Duration(cfg.Enrich.CacheTTLHours) * time.Hour,
		OwnCapital:  ownCapital,
	})
}

func newRanker() (*rank.Ranker, error) {
	deny, err := rank.LoadDenylist(cfg.Rank.DenylistPath)
	if err != nil {
		return nil, err
	}
	return rank.New(cfg.Rank.Weights, deny), nil
}

// loadCompetitorsFile reads a competitor list from a JSON file and
// normalizes tax IDs. Entries with an invalid CNPJ keep an empty TaxID and
// are enriched by name only.
func loadCompetitorsFile(path string) ([]model.Competitor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read competitors %s", path)
	}

	var comps []model.Competitor
	if err := json.Unmarshal(raw, &comps); err != nil {
		return nil, eris.Wrapf(err, "parse competitors %s", path)
	}
	normalizeTaxIDs(comps)
	return comps, nil
}

// normalizeTaxIDs validates each competitor's CNPJ in place. Invalid IDs are
// blanked so the competitor falls back to name-only enrichment.
func normalizeTaxIDs(comps []model.Competitor) {
	for i := range comps {
		if comps[i].TaxID == "" {
			continue
		}
		normalized, ok := model.NormalizeCNPJ(comps[i].TaxID)
		if !ok {
			zap.L().Warn("invalid tax id, enriching by name only",
				zap.String("tax_id", comps[i].TaxID),
				zap.String("name", comps[i].Name()),
			)
			comps[i].TaxID = ""
			continue
		}
		comps[i].TaxID = normalized
	}
}

func loadProductsFile(path string) ([]model.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read products %s", path)
	}
	var products []model.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, eris.Wrapf(err, "parse products %s", path)
	}
	return products, nil
}

func loadCompetitorProductsFile(path string) ([]model.CompetitorProduct, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read competitor products %s", path)
	}
	var products []model.CompetitorProduct
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, eris.Wrapf(err, "parse competitor products %s", path)
	}
	return products, nil
}
