// internal/workers/scoring/lead-analysis/models.go
package leadanalysis

import "leadgen-workers/internal/models"

type Input struct {
	LeadID string       `json:"leadId,omitempty"`
	Lead   *models.Lead `json:"lead,omitempty"`

	Criteria models.SearchCriteria `json:"criteria"`

	// Scores from a previous score-lead task; recomputed when absent.
	Scores *models.ScoreVector `json:"scores,omitempty"`

	// Similar from a previous find-similar-leads task.
	Similar []models.SimilarCompany `json:"similar,omitempty"`
}

type Output struct {
	Report         models.AnalysisReport `json:"report"`
	AlertPublished bool                  `json:"alertPublished"`
}
