// internal/workers/scoring/lead-score/models.go
package leadscore

import "leadgen-workers/internal/models"

type Input struct {
	LeadID   string                `json:"leadId"`
	Lead     *models.Lead          `json:"lead,omitempty"`
	Criteria models.SearchCriteria `json:"criteria"`
}

type Output struct {
	LeadID string             `json:"leadId"`
	Scores models.ScoreVector `json:"scores"`
}
