// internal/scoring/similarity/fields.go
package similarity

import (
	"net/url"
	"strings"
)

// FieldScore compares two short labels case-insensitively.
// Equal after trim/lowercase -> 1.0, one contains the other -> 0.8, else 0.
func FieldScore(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}
	return 0
}

// KeywordScore measures token overlap between two free texts. Tokens of 3
// characters or fewer are ignored; the result is |intersection| divided by the
// larger token set.
func KeywordScore(textA, textB string) float64 {
	tokensA := tokenize(textA)
	tokensB := tokenize(textB)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	common := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			common++
		}
	}

	larger := len(tokensA)
	if len(tokensB) > larger {
		larger = len(tokensB)
	}
	return float64(common) / float64(larger)
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		if len(field) > 3 {
			tokens[field] = struct{}{}
		}
	}
	return tokens
}

// WebsiteScore compares two URLs by hostname. Identical hosts score 1.0, the
// same registrable domain (last two labels) scores 0.8, anything else 0.
// Unparsable input scores 0 rather than failing.
func WebsiteScore(urlA, urlB string) float64 {
	hostA := hostname(urlA)
	hostB := hostname(urlB)
	if hostA == "" || hostB == "" {
		return 0
	}
	if hostA == hostB {
		return 1.0
	}
	if baseDomain(hostA) != "" && baseDomain(hostA) == baseDomain(hostB) {
		return 0.8
	}
	return 0
}

func hostname(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func baseDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ""
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
