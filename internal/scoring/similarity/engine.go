// internal/scoring/similarity/engine.go
package similarity

import (
	"sort"

	"leadgen-workers/internal/models"
)

// Factor weights for the combined similarity. Same shape as the lead-fit
// weights but distinct semantics: these compare two leads, not a lead against
// search criteria.
const (
	weightIndustry = 0.30
	weightLocation = 0.20
	weightSize     = 0.15
	weightKeyword  = 0.20
	weightWebsite  = 0.15
)

// MinSimilarity is the cutoff below which a candidate is not worth returning.
const MinSimilarity = 0.3

// DefaultMaxResults caps the similar-company list when the caller does not ask
// for a specific size.
const DefaultMaxResults = 5

// Factors computes the five-dimension similarity breakdown between two leads.
// Company size is compared as a plain label here; bucket-distance logic belongs
// to the fit scorer only.
func Factors(target, candidate models.Lead) models.SimilarityFactors {
	return models.SimilarityFactors{
		IndustryMatch: FieldScore(target.Industry, candidate.Industry),
		LocationMatch: FieldScore(target.Location, candidate.Location),
		SizeMatch:     FieldScore(target.CompanySize, candidate.CompanySize),
		KeywordMatch:  KeywordScore(target.Description, candidate.Description),
		WebsiteMatch:  WebsiteScore(target.Website, candidate.Website),
	}
}

// Combine folds the factor breakdown into a single similarity value.
func Combine(f models.SimilarityFactors) float64 {
	return f.IndustryMatch*weightIndustry +
		f.LocationMatch*weightLocation +
		f.SizeMatch*weightSize +
		f.KeywordMatch*weightKeyword +
		f.WebsiteMatch*weightWebsite
}

// FindSimilar ranks the pool by similarity to the target. The target itself is
// excluded by ID, candidates at or below MinSimilarity are dropped, and ties
// keep pool order (stable sort).
func FindSimilar(target models.Lead, pool []models.Lead, maxResults int) []models.SimilarCompany {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	results := make([]models.SimilarCompany, 0, len(pool))
	for _, candidate := range pool {
		if candidate.ID == target.ID {
			continue
		}

		factors := Factors(target, candidate)
		overall := Combine(factors)
		if overall <= MinSimilarity {
			continue
		}

		results = append(results, models.SimilarCompany{
			Lead:       candidate,
			Similarity: overall,
			Factors:    factors,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}
