// internal/workers/scoring/similar-leads/models.go
package similarleads

import "leadgen-workers/internal/models"

type Input struct {
	Target     models.Lead   `json:"target"`
	Pool       []models.Lead `json:"pool,omitempty"`
	MaxResults int           `json:"maxResults,omitempty"`
}

type Output struct {
	TargetID string                  `json:"targetId"`
	Similar  []models.SimilarCompany `json:"similar"`
	PoolSize int                     `json:"poolSize"`
}
