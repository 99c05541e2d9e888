package models

// Material is an uploaded document usable as an email attachment. StorageKey is
// an opaque token for the file-storage service and is passed through untouched.
type Material struct {
	ID          string   `json:"id"`
	FileName    string   `json:"fileName"`
	FileType    string   `json:"fileType"` // MIME type or extension label
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	StorageKey  string   `json:"storageKey,omitempty"`
}

// EmailContent is the generated outbound email a recommendation is made for.
type EmailContent struct {
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	CustomerName    string `json:"customerName"`
	CustomerWebsite string `json:"customerWebsite,omitempty"`
	Industry        string `json:"industry,omitempty"`
}

// Confidence tiers for an attachment match.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// AttachmentMatch is one scored material. RelevanceScore is an additive point
// scale, not normalized to [0, 1]; the confidence thresholds are defined
// against that scale.
type AttachmentMatch struct {
	Material       Material `json:"material"`
	RelevanceScore float64  `json:"relevanceScore"`
	MatchReasons   []string `json:"matchReasons"`
	Confidence     string   `json:"confidence"`
}

// AttachmentRecommendation is the full result of matching an email against the
// material library.
type AttachmentRecommendation struct {
	Matches        []AttachmentMatch `json:"matches"`
	TotalMaterials int               `json:"totalMaterials"`
	ProcessingMs   int64             `json:"processingMs"`
	Summary        string            `json:"summary"`
	Degraded       bool              `json:"degraded,omitempty"`
}
