// internal/scoring/attachment/match.go
package attachment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"leadgen-workers/internal/models"
	"leadgen-workers/internal/scoring/report"
)

const (
	maxMatches      = 10
	maxBasicMatches = 5
	basicScore      = 1.0
)

// Thresholds on the additive point scale.
const (
	highlyRelevantScore     = 5.0
	moderatelyRelevantScore = 2.0
)

// MatchAttachments ranks the material library against the email. It never
// returns an error: a panicking extractor, or any other unexpected failure
// inside the pipeline, degrades to a basic first-N recommendation so the
// caller always gets a usable result.
func MatchAttachments(ctx context.Context, email models.EmailContent, materials []models.Material, extract ExtractorFunc) (rec models.AttachmentRecommendation) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			rec = basicRecommendation(materials, start)
		}
	}()

	if len(materials) == 0 {
		return models.AttachmentRecommendation{
			Matches:        []models.AttachmentMatch{},
			TotalMaterials: 0,
			ProcessingMs:   time.Since(start).Milliseconds(),
			Summary:        "未找到相关材料",
		}
	}

	keywords := ExtractKeywords(ctx, email, extract)

	matches := make([]models.AttachmentMatch, 0, len(materials))
	for _, material := range materials {
		score, matched := ScoreMaterial(keywords, material)
		if score <= 0 {
			continue
		}
		matches = append(matches, models.AttachmentMatch{
			Material:       material,
			RelevanceScore: score,
			MatchReasons:   buildReasons(material, score, matched),
			Confidence:     confidenceFor(score, len(matched)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	return models.AttachmentRecommendation{
		Matches:        matches,
		TotalMaterials: len(materials),
		ProcessingMs:   time.Since(start).Milliseconds(),
		Summary:        report.Summary(keywords, matches),
	}
}

// buildReasons assembles the ordered human-readable reason list. It is never
// empty: a material that scored without hitting any named rule still gets the
// generic reason.
func buildReasons(material models.Material, score float64, matched []string) []string {
	var reasons []string

	if len(matched) > 0 {
		shown := matched
		if len(shown) > 3 {
			shown = shown[:3]
		}
		reasons = append(reasons, fmt.Sprintf("匹配关键词: %s", strings.Join(shown, ", ")))
	}

	fileName := strings.ToLower(material.FileName)
	if containsAny(fileName, productTerms) {
		reasons = append(reasons, "产品介绍材料")
	}
	if containsAny(fileName, caseTerms) {
		reasons = append(reasons, "客户案例材料")
	}
	if containsAny(fileName, pricingTerms) {
		reasons = append(reasons, "价格方案材料")
	}

	if score > highlyRelevantScore {
		reasons = append(reasons, "高度相关")
	} else if score > moderatelyRelevantScore {
		reasons = append(reasons, "中度相关")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "基础匹配")
	}
	return reasons
}

func confidenceFor(score float64, matchedCount int) string {
	switch {
	case score >= 5 && matchedCount >= 2:
		return models.ConfidenceHigh
	case score >= 2 && matchedCount >= 1:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// basicRecommendation is the terminal degradation path: every material becomes
// a low-confidence basic match, capped to the first five.
func basicRecommendation(materials []models.Material, start time.Time) models.AttachmentRecommendation {
	capped := materials
	if len(capped) > maxBasicMatches {
		capped = capped[:maxBasicMatches]
	}

	matches := make([]models.AttachmentMatch, 0, len(capped))
	for _, material := range capped {
		matches = append(matches, models.AttachmentMatch{
			Material:       material,
			RelevanceScore: basicScore,
			MatchReasons:   []string{"基础匹配"},
			Confidence:     models.ConfidenceLow,
		})
	}

	return models.AttachmentRecommendation{
		Matches:        matches,
		TotalMaterials: len(materials),
		ProcessingMs:   time.Since(start).Milliseconds(),
		Summary:        "智能匹配暂不可用，已使用基础算法推荐材料",
		Degraded:       true,
	}
}
