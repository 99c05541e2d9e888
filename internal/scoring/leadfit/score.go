// internal/scoring/leadfit/score.go
package leadfit

import (
	"math"
	"strings"

	"leadgen-workers/internal/models"
)

// Overall weights. They must sum to 1.0; TestWeightsSumToOne guards that.
const (
	weightIndustry     = 0.30
	weightLocation     = 0.20
	weightCompanySize  = 0.15
	weightEngagement   = 0.20
	weightAIConfidence = 0.15
)

// absentCriterionScore is the neutral-positive default for a dimension the
// search did not constrain. An unconstrained search must not penalize leads.
const absentCriterionScore = 0.8

// Score computes the five-dimension fit of one lead against one criteria set
// plus the weighted overall. Every value is in [0, 1], rounded to 2 decimals.
func Score(lead models.Lead, criteria models.SearchCriteria) models.ScoreVector {
	industry := industryScore(lead.Industry, criteria.Industry)
	location := locationScore(lead.Location, criteria.Location)
	size := sizeScore(lead.CompanySize, criteria.CompanySize)
	engagement := engagementScore(lead)
	confidence := confidenceScore(lead)

	overall := industry*weightIndustry +
		location*weightLocation +
		size*weightCompanySize +
		engagement*weightEngagement +
		confidence*weightAIConfidence

	return models.ScoreVector{
		Overall:      round2(overall),
		Industry:     round2(industry),
		Location:     round2(location),
		CompanySize:  round2(size),
		Engagement:   round2(engagement),
		AIConfidence: round2(confidence),
	}
}

func industryScore(leadIndustry, wantIndustry string) float64 {
	want := strings.ToLower(strings.TrimSpace(wantIndustry))
	if want == "" {
		return absentCriterionScore
	}
	have := strings.ToLower(strings.TrimSpace(leadIndustry))
	if have == want {
		return 1.0
	}
	if have != "" && (strings.Contains(have, want) || strings.Contains(want, have)) {
		return 0.9
	}
	if matchesRelated(have, want) || matchesRelated(want, have) {
		return 0.7
	}
	return 0.3
}

// matchesRelated checks the candidate against the relation table entry of base.
func matchesRelated(candidate, base string) bool {
	if candidate == "" {
		return false
	}
	for _, related := range relatedIndustries(base) {
		if candidate == related || strings.Contains(candidate, related) || strings.Contains(related, candidate) {
			return true
		}
	}
	return false
}

func locationScore(leadLocation, wantLocation string) float64 {
	want := strings.ToLower(strings.TrimSpace(wantLocation))
	if want == "" {
		return absentCriterionScore
	}
	have := strings.ToLower(strings.TrimSpace(leadLocation))
	if have == want {
		return 1.0
	}
	if have != "" && (strings.Contains(have, want) || strings.Contains(want, have)) {
		return 0.9
	}
	if sameCluster(have, want) {
		return 0.6
	}
	return 0.3
}

func sizeScore(leadSize, wantSize string) float64 {
	if strings.TrimSpace(wantSize) == "" {
		return absentCriterionScore
	}

	haveIdx := bucketIndex(leadSize)
	wantIdx := bucketIndex(wantSize)
	if haveIdx < 0 || wantIdx < 0 {
		// Unknown bucket on either side: the distance cannot be resolved.
		return 0.4
	}

	switch distance := abs(haveIdx - wantIdx); distance {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.6
	default:
		return 0.4
	}
}

func engagementScore(lead models.Lead) float64 {
	score := 0.5
	if strings.TrimSpace(lead.Website) != "" {
		score += 0.2
	}
	if strings.TrimSpace(lead.ContactPerson) != "" {
		score += 0.1
	}
	if strings.TrimSpace(lead.Phone) != "" {
		score += 0.1
	}
	if len(lead.Description) > 50 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func confidenceScore(lead models.Lead) float64 {
	confidence := 0.5
	if len(lead.MatchReasons) > 0 {
		confidence += 0.1 * float64(len(lead.MatchReasons))
	}
	if lead.DiscoveryConfidence != nil {
		confidence = (confidence + *lead.DiscoveryConfidence) / 2
	}
	confidence = (confidence + completeness(lead)) / 2
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// completeness is the fraction of the eight identifying fields that are filled.
func completeness(lead models.Lead) float64 {
	fields := []string{
		lead.CompanyName,
		lead.Email,
		lead.Website,
		lead.ContactPerson,
		lead.Phone,
		lead.Description,
		lead.Industry,
		lead.Location,
	}
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
