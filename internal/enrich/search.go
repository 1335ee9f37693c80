package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/stratevo/intel-cli/internal/resilience"
	"github.com/stratevo/intel-cli/pkg/serper"
)

type searchKind string

const (
	searchWeb  searchKind = "web"
	searchNews searchKind = "news"
)

// cachedSearch serves a query from the store's search cache when a fresh
// entry exists, otherwise calls the provider under the rate limiter, the
// search breaker, and the retry policy, then caches the response.
func (e *Enricher) cachedSearch(ctx context.Context, kind searchKind, query string) ([]serper.Result, error) {
	hash := queryHash(kind, query)

	if raw, err := e.ledger.GetCachedSearch(ctx, hash); err != nil {
		zap.L().Warn("enrich: search cache read", zap.Error(err))
	} else if raw != nil {
		var results []serper.Result
		if err := json.Unmarshal(raw, &results); err == nil {
			return results, nil
		}
		zap.L().Warn("enrich: corrupt search cache entry", zap.String("hash", hash))
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	results, err := resilience.Call(e.searchBreaker, func() ([]serper.Result, error) {
		return resilience.Run(ctx, e.opts.Retry, "serper."+string(kind), func(ctx context.Context) ([]serper.Result, error) {
			if kind == searchNews {
				return e.search.News(ctx, query, serper.WithLocale("br", "pt-br"), serper.WithNum(10))
			}
			return e.search.Search(ctx, query, serper.WithLocale("br", "pt-br"), serper.WithNum(10))
		})
	})
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(results); err == nil {
		if err := e.ledger.SetCachedSearch(ctx, hash, raw, e.opts.CacheTTL); err != nil {
			zap.L().Warn("enrich: search cache write", zap.Error(err))
		}
	}
	return results, nil
}

func queryHash(kind searchKind, query string) string {
	sum := sha256.Sum256([]byte(string(kind) + "|" + query))
	return hex.EncodeToString(sum[:])
}
