package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratevo/intel-cli/internal/model"
)

func tenantProduct(id, name string) model.Product {
	return model.Product{ID: id, Name: name}
}

func competitorProduct(name, competitor string) model.CompetitorProduct {
	return model.CompetitorProduct{
		Product:        model.Product{Name: name},
		CompetitorName: competitor,
	}
}

func TestMatchProducts_SimilarMatch(t *testing.T) {
	tenant := []model.Product{tenantProduct("p1", "Capacete de Segurança X")}
	comp := []model.CompetitorProduct{
		competitorProduct("Capacete Segurança X Pro", "Rival SA"),
		competitorProduct("Oculos de Solda", "Rival SA"),
	}

	got := MatchProducts(tenant, comp, Thresholds{})
	require.Len(t, got, 1)

	m := got[0]
	assert.Equal(t, model.MatchSimilar, m.MatchType)
	require.Len(t, m.MatchedCompetitorProducts, 1)
	assert.Equal(t, "Capacete Segurança X Pro", m.MatchedCompetitorProducts[0].Name)
	assert.Greater(t, m.MatchScore, 0.6)
	assert.LessOrEqual(t, m.MatchScore, 0.9)
}

func TestMatchProducts_ExactMatch(t *testing.T) {
	tenant := []model.Product{tenantProduct("p1", "Luva Nitrílica Verde")}
	comp := []model.CompetitorProduct{competitorProduct("Luva Nitrilica Verde", "Rival SA")}

	got := MatchProducts(tenant, comp, Thresholds{})
	require.Len(t, got, 1)
	assert.Equal(t, model.MatchExact, got[0].MatchType)
	assert.InDelta(t, 1.0, got[0].MatchScore, 0.0001)
}

func TestMatchProducts_Unique(t *testing.T) {
	tenant := []model.Product{tenantProduct("p1", "Detector de Gases Portátil")}
	comp := []model.CompetitorProduct{
		competitorProduct("Botina Couro", "Rival SA"),
		competitorProduct("Protetor Auricular", "Outra Ltda"),
	}

	got := MatchProducts(tenant, comp, Thresholds{})
	require.Len(t, got, 1)
	assert.Equal(t, model.MatchUnique, got[0].MatchType)
	assert.Zero(t, got[0].MatchScore)
	assert.Empty(t, got[0].MatchedCompetitorProducts)
}

func TestMatchProducts_BestMatchFirst(t *testing.T) {
	tenant := []model.Product{tenantProduct("p1", "Luvas de Proteção")}
	comp := []model.CompetitorProduct{
		competitorProduct("Luvas Proteção Industrial", "A"), // word overlap
		competitorProduct("Luvas de Proteção", "B"),         // exact, higher
	}

	got := MatchProducts(tenant, comp, Thresholds{})
	require.Len(t, got, 1)
	require.Len(t, got[0].MatchedCompetitorProducts, 2)
	assert.Equal(t, "B", got[0].MatchedCompetitorProducts[0].CompetitorName)
	assert.Equal(t, model.MatchExact, got[0].MatchType)
}

func TestMatchProducts_DoesNotMutateInputs(t *testing.T) {
	tenant := []model.Product{tenantProduct("p1", "Luvas")}
	comp := []model.CompetitorProduct{
		competitorProduct("Luvas Premium", "A"),
		competitorProduct("Luvas", "B"),
	}
	compCopy := append([]model.CompetitorProduct(nil), comp...)

	_ = MatchProducts(tenant, comp, Thresholds{})
	assert.Equal(t, compCopy, comp)
}

func TestMatchProducts_Deterministic(t *testing.T) {
	tenant := []model.Product{
		tenantProduct("p1", "Capacete de Segurança X"),
		tenantProduct("p2", "Luvas de Proteção"),
	}
	comp := []model.CompetitorProduct{
		competitorProduct("Capacete Segurança X Pro", "A"),
		competitorProduct("Luvas", "B"),
		competitorProduct("Luvas de Proteção", "C"),
	}

	first := MatchProducts(tenant, comp, Thresholds{})
	second := MatchProducts(tenant, comp, Thresholds{})
	assert.Equal(t, first, second)
}

func TestMatchProducts_EmptyInputs(t *testing.T) {
	assert.Empty(t, MatchProducts(nil, nil, Thresholds{}))

	got := MatchProducts([]model.Product{tenantProduct("p1", "Luvas")}, nil, Thresholds{})
	require.Len(t, got, 1)
	assert.Equal(t, model.MatchUnique, got[0].MatchType)
}
