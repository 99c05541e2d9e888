// internal/workers/scoring/attachment-match/config.go
package attachmentmatch

import "time"

type Config struct {
	KeywordCacheTTL time.Duration
	Timeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		KeywordCacheTTL: time.Hour,
		Timeout:         15 * time.Second,
	}
}
