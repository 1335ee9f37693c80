package rank

import (
	"strings"

	"github.com/stratevo/intel-cli/internal/model"
)

// Keyword and path patterns for tagging what kind of page a search result
// points at. Portuguese and English tokens, since discovery queries run
// against Brazilian and international indexes.
var (
	jobTokens = []string{
		"vaga de", "vagas de", "vagas abertas", "trabalhe conosco",
		"job opening", "we're hiring", "estamos contratando", "/careers", "/vagas",
	}
	articleTokens = []string{
		"notícia", "noticias", "artigo", "/blog/", "/news/", "como escolher",
		"guia completo", "o que é", "tudo sobre",
	}
	associationTokens = []string{
		"associação", "sindicato", "federação", "confederação", "abnt",
		"association", "instituto",
	}
	educationalTokens = []string{
		"curso de", "cursos de", "universidade", "faculdade", "treinamento",
		"certificação", "apostila",
	}
	companySignals = []string{
		"ltda", "s.a.", "s/a", "eireli", "cnpj", "fabricante", "indústria",
		"industria", "fornecedor", "distribuidora", "soluções em", "solucoes em",
		"empresa especializada",
	}
)

// classifyBusinessType tags a result as job-posting, article, profile,
// association, educational, company, or other. The fallback is "other"
// unless positive company signals are present.
func classifyBusinessType(title, snippet, link string) model.BusinessType {
	text := strings.ToLower(title + " " + snippet + " " + link)
	lowerLink := strings.ToLower(link)

	// Professional-network paths are unambiguous.
	if strings.Contains(lowerLink, "linkedin.com") {
		if strings.Contains(lowerLink, "/company/") {
			return model.BusinessCompany
		}
		if strings.Contains(lowerLink, "/in/") || strings.Contains(lowerLink, "/pub/") {
			return model.BusinessProfile
		}
	}
	if strings.Contains(lowerLink, "instagram.com") || strings.Contains(lowerLink, "facebook.com") {
		return model.BusinessProfile
	}

	if containsAny(text, jobTokens) {
		return model.BusinessJobPosting
	}
	if containsAny(text, associationTokens) {
		return model.BusinessAssociation
	}
	if containsAny(text, educationalTokens) {
		return model.BusinessEducational
	}
	if containsAny(text, articleTokens) {
		return model.BusinessArticle
	}
	if containsAny(text, companySignals) {
		return model.BusinessCompany
	}
	return model.BusinessOther
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
