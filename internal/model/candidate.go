package model

// BusinessType tags a discovery result by what kind of page it appears to be.
// Only "company" results are eligible for promotion into the competitor set.
type BusinessType string

const (
	BusinessCompany     BusinessType = "company"
	BusinessJobPosting  BusinessType = "job-posting"
	BusinessArticle     BusinessType = "article"
	BusinessProfile     BusinessType = "profile"
	BusinessAssociation BusinessType = "association"
	BusinessEducational BusinessType = "educational"
	BusinessOther       BusinessType = "other"
)

// Candidate is a ranked discovery result. Relevance is always populated;
// SimilarityScore and BusinessType are added by later ranking stages.
type Candidate struct {
	Name            string       `json:"name"`
	Website         string       `json:"website"`
	Description     string       `json:"description,omitempty"`
	Relevance       float64      `json:"relevance"`
	SimilarityScore float64      `json:"similarity_score,omitempty"`
	BusinessType    BusinessType `json:"business_type,omitempty"`
}
