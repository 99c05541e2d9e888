// internal/workers/scoring/attachment-match/models.go
package attachmentmatch

import "leadgen-workers/internal/models"

type Input struct {
	LeadID string `json:"leadId,omitempty"`

	Email models.EmailContent `json:"email"`

	// Materials is the inline material library. When empty the handler loads
	// the owner's library from the database.
	Materials []models.Material `json:"materials,omitempty"`
	OwnerID   string            `json:"ownerId,omitempty"`
}

type Output struct {
	LeadID         string                          `json:"leadId,omitempty"`
	Recommendation models.AttachmentRecommendation `json:"recommendation"`
}
