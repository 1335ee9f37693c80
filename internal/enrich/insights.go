package enrich

import "github.com/stratevo/intel-cli/internal/model"

// insights derives the qualitative strengths and weaknesses shown in
// analysis output. Rules are deliberately coarse: they read the already
// computed signals, never call providers.
func insights(ec model.EnrichedCompetitor, ownCapital float64) (strengths, weaknesses []string) {
	if ownCapital > 0 {
		switch {
		case ec.RegisteredCapital > ownCapital*10:
			strengths = append(strengths, "Capital social muito acima do seu")
		case ec.RegisteredCapital > ownCapital*2:
			strengths = append(strengths, "Capital social acima do seu")
		case ec.RegisteredCapital > 0 && ec.RegisteredCapital < ownCapital/2:
			weaknesses = append(weaknesses, "Capital social reduzido")
		}
	}

	if ec.Website != "" || ec.DiscoveredWebsite != "" {
		strengths = append(strengths, "Site institucional ativo")
	} else {
		weaknesses = append(weaknesses, "Sem site institucional")
	}

	if ec.LinkedInURL != "" {
		strengths = append(strengths, "Presença corporativa no LinkedIn")
	} else {
		weaknesses = append(weaknesses, "Sem presença no LinkedIn")
	}

	switch {
	case len(ec.RecentNews) > 2:
		strengths = append(strengths, "Aparições frequentes na mídia")
	case len(ec.RecentNews) == 0:
		weaknesses = append(weaknesses, "Sem menções recentes na mídia")
	}

	if ec.Differentiator != "" {
		strengths = append(strengths, "Diferencial declarado: "+ec.Differentiator)
	}
	return strengths, weaknesses
}
