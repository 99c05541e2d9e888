package models

// Lead is a prospective customer record. Leads are created and persisted by the
// dashboard service; the scoring workers only read them.
type Lead struct {
	ID            string `json:"id"`
	CompanyName   string `json:"companyName"`
	Email         string `json:"email,omitempty"`
	Website       string `json:"website,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Description   string `json:"description,omitempty"`
	Industry      string `json:"industry,omitempty"`
	Location      string `json:"location,omitempty"`
	CompanySize   string `json:"companySize,omitempty"`

	// MatchReasons and DiscoveryConfidence are filled by the discovery pipeline
	// when the lead was found automatically; manual leads leave them empty.
	MatchReasons        []string `json:"matchReasons,omitempty"`
	DiscoveryConfidence *float64 `json:"discoveryConfidence,omitempty"`
}

// SearchCriteria describes what the user was looking for. Every field is
// optional; an absent field never counts against a lead.
type SearchCriteria struct {
	Industry    string `json:"industry,omitempty"`
	Location    string `json:"location,omitempty"`
	CompanySize string `json:"companySize,omitempty"`
	Keywords    string `json:"keywords,omitempty"` // comma-separated
}

// ScoreVector is the per-dimension fit score of a lead against criteria.
// Overall is always the weighted combination of the five sub-scores
// (industry 0.30, location 0.20, companySize 0.15, engagement 0.20,
// aiConfidence 0.15). All values are in [0, 1], rounded to 2 decimals.
type ScoreVector struct {
	Overall      float64 `json:"overall"`
	Industry     float64 `json:"industry"`
	Location     float64 `json:"location"`
	CompanySize  float64 `json:"companySize"`
	Engagement   float64 `json:"engagement"`
	AIConfidence float64 `json:"aiConfidence"`
}

// SimilarityFactors is the five-dimension breakdown of how close two leads are.
type SimilarityFactors struct {
	IndustryMatch float64 `json:"industryMatch"`
	LocationMatch float64 `json:"locationMatch"`
	SizeMatch     float64 `json:"sizeMatch"`
	KeywordMatch  float64 `json:"keywordMatch"`
	WebsiteMatch  float64 `json:"websiteMatch"`
}

// SimilarCompany is one entry of a ranked similar-lead result.
type SimilarCompany struct {
	Lead       Lead              `json:"lead"`
	Similarity float64           `json:"similarity"`
	Factors    SimilarityFactors `json:"factors"`
}
