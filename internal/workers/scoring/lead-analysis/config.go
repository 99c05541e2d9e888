// internal/workers/scoring/lead-analysis/config.go
package leadanalysis

import "time"

type Config struct {
	CacheTTL time.Duration
	Timeout  time.Duration

	// HotLeadThreshold is the overall score above which a hot-lead alert is
	// published.
	HotLeadThreshold float64
	HotLeadTopicARN  string
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL:         5 * time.Minute,
		Timeout:          15 * time.Second,
		HotLeadThreshold: 0.8,
	}
}
