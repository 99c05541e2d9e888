package models

import "time"

// AnalysisReport is the human-readable assessment generated for one lead.
type AnalysisReport struct {
	ReportID        string      `json:"reportId"`
	LeadID          string      `json:"leadId"`
	CompanyName     string      `json:"companyName"`
	Scores          ScoreVector `json:"scores"`
	SimilarLeadIDs  []string    `json:"similarLeadIds,omitempty"`
	Recommendations []string    `json:"recommendations"`
	RiskFactors     []string    `json:"riskFactors,omitempty"`
	NextActions     []string    `json:"nextActions"`
	GeneratedAt     time.Time   `json:"generatedAt"`
}
