// internal/scoring/attachment/keywords.go
package attachment

import (
	"context"
	"strings"

	"leadgen-workers/internal/models"
)

// ExtractorFunc is the injected text-understanding capability. The engine has
// no dependency on any specific provider; the worker wires one in and handles
// credentials, rate limits and retries. The returned slice is an ordered list
// of salient terms.
type ExtractorFunc func(ctx context.Context, email models.EmailContent) ([]string, error)

const (
	maxKeywords         = 20
	maxFallbackKeywords = 10
)

// fallbackVocabulary is the static bilingual term list used when the external
// capability is unavailable. Matched by substring against subject+body.
var fallbackVocabulary = []string{
	"自动化", "效率", "平台", "人工智能", "大数据", "电商", "数字化", "解决方案",
	"管理", "营销", "数据分析", "云服务", "智能", "系统", "服务", "产品",
	"automation", "efficiency", "platform", "ai", "big data", "e-commerce",
	"solution", "management", "marketing", "analytics", "cloud", "saas",
	"crm", "integration", "workflow", "digital",
}

// ExtractKeywords produces the keyword list for an email. The primary path
// delegates to the injected capability; any error from it falls through to the
// static vocabulary. The fallback cannot fail, so neither can this function.
func ExtractKeywords(ctx context.Context, email models.EmailContent, extract ExtractorFunc) []string {
	if extract != nil {
		keywords, err := extract(ctx, email)
		if err == nil {
			return cleanKeywords(keywords, maxKeywords)
		}
	}
	return FallbackKeywords(email)
}

// FallbackKeywords is the deterministic substitute for the external call: a
// substring scan of the static vocabulary over the lowercased subject and
// body, plus the customer name and industry when present.
func FallbackKeywords(email models.EmailContent) []string {
	text := strings.ToLower(email.Subject + " " + email.Body)

	var keywords []string
	for _, term := range fallbackVocabulary {
		if strings.Contains(text, term) {
			keywords = append(keywords, term)
		}
	}
	if name := strings.TrimSpace(email.CustomerName); name != "" {
		keywords = append(keywords, strings.ToLower(name))
	}
	if industry := strings.TrimSpace(email.Industry); industry != "" {
		keywords = append(keywords, strings.ToLower(industry))
	}

	if len(keywords) > maxFallbackKeywords {
		keywords = keywords[:maxFallbackKeywords]
	}
	return keywords
}

func cleanKeywords(raw []string, limit int) []string {
	cleaned := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		cleaned = append(cleaned, kw)
		if len(cleaned) == limit {
			break
		}
	}
	return cleaned
}
