// internal/scoring/attachment/scorer.go
package attachment

import (
	"strings"

	"leadgen-workers/internal/models"
)

// Point values for the additive relevance scale. A keyword contributes once,
// through the first rule that matches it.
const (
	pointsFileName    = 3.0
	pointsDescription = 2.0
	pointsKeywordList = 1.5
	pointsTypeBonus   = 1.0
)

// TypeBonusRule ties a file-type category to the keyword terms that make that
// category relevant. The term lists are illustrative, not exhaustive, and kept
// as data so deployments can tune them.
type TypeBonusRule struct {
	TypeSubstrings []string
	Terms          []string
}

// Filename category vocabularies. They drive both scoring (a keyword counts
// as a filename hit when it and the filename fall into the same category, e.g.
// keyword "价格" against "产品定价方案.xlsx") and the reason tags.
var (
	productTerms = []string{"产品", "介绍", "product", "introduction", "intro"}
	caseTerms    = []string{"案例", "成功", "case", "success"}
	pricingTerms = []string{"定价", "价格", "报价", "pricing", "price", "quote"}
)

var categoryVocabularies = [][]string{productTerms, caseTerms, pricingTerms}

var typeBonusRules = []TypeBonusRule{
	{
		TypeSubstrings: []string{"pdf"},
		Terms:          []string{"文档", "手册", "说明", "方案", "document", "manual", "spec", "guide"},
	},
	{
		TypeSubstrings: []string{"image", "png", "jpg", "jpeg"},
		Terms:          []string{"图片", "展示", "产品", "photo", "image", "showcase", "product"},
	},
	{
		TypeSubstrings: []string{"video", "mp4"},
		Terms:          []string{"视频", "演示", "介绍", "demo", "video", "intro"},
	},
	{
		TypeSubstrings: []string{"sheet", "excel", "xls", "csv"},
		Terms:          []string{"数据", "报表", "分析", "data", "report", "analysis"},
	},
}

// ScoreMaterial scores one material against the keyword list. Returns the
// additive score and the keywords that matched.
func ScoreMaterial(keywords []string, material models.Material) (float64, []string) {
	fileName := strings.ToLower(material.FileName)
	description := strings.ToLower(material.Description)

	materialKeywords := make([]string, 0, len(material.Keywords))
	for _, mk := range material.Keywords {
		materialKeywords = append(materialKeywords, strings.ToLower(mk))
	}

	score := 0.0
	var matched []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}

		switch {
		case strings.Contains(fileName, kw) || sameCategory(fileName, kw):
			score += pointsFileName
			matched = append(matched, kw)
		case description != "" && strings.Contains(description, kw):
			score += pointsDescription
			matched = append(matched, kw)
		case keywordListMatch(materialKeywords, kw):
			score += pointsKeywordList
			matched = append(matched, kw)
		}
	}

	score += typeBonus(keywords, material.FileType)
	return score, matched
}

// typeBonus grants at most one extra point when the material's type category
// lines up with what the email talks about.
func typeBonus(keywords []string, fileType string) float64 {
	fileType = strings.ToLower(strings.TrimSpace(fileType))
	if fileType == "" {
		return 0
	}

	for _, rule := range typeBonusRules {
		if !containsAny(fileType, rule.TypeSubstrings) {
			continue
		}
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			for _, term := range rule.Terms {
				if strings.Contains(kw, term) || strings.Contains(term, kw) {
					return pointsTypeBonus
				}
			}
		}
	}
	return 0
}

// sameCategory reports whether the filename and the keyword both hit one of
// the category vocabularies, even when the keyword itself is not a literal
// substring of the filename.
func sameCategory(fileName, kw string) bool {
	for _, terms := range categoryVocabularies {
		if !containsAny(fileName, terms) {
			continue
		}
		for _, term := range terms {
			if strings.Contains(kw, term) || strings.Contains(term, kw) {
				return true
			}
		}
	}
	return false
}

func keywordListMatch(materialKeywords []string, kw string) bool {
	for _, mk := range materialKeywords {
		if strings.Contains(mk, kw) || strings.Contains(kw, mk) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
