// internal/workers/scoring/similar-leads/config.go
package similarleads

import "time"

type Config struct {
	LeadsIndex        string
	CandidatePoolSize int
	MaxResultsDefault int
	Timeout           time.Duration
}

func LoadConfig() *Config {
	return &Config{
		LeadsIndex:        "leads",
		CandidatePoolSize: 50,
		MaxResultsDefault: 5,
		Timeout:           10 * time.Second,
	}
}
