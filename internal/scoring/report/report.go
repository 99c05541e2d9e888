// internal/scoring/report/report.go
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadgen-workers/internal/models"
)

// Summary builds the one-paragraph explanation attached to an attachment
// recommendation.
func Summary(keywords []string, matches []models.AttachmentMatch) string {
	if len(matches) == 0 {
		return "未找到相关材料"
	}

	shown := keywords
	if len(shown) > 3 {
		shown = shown[:3]
	}

	high, medium := 0, 0
	for _, m := range matches {
		switch m.Confidence {
		case models.ConfidenceHigh:
			high++
		case models.ConfidenceMedium:
			medium++
		}
	}

	recommend := len(matches)
	if recommend > 3 {
		recommend = 3
	}

	return fmt.Sprintf(
		"根据邮件关键词(%s)分析，找到%d个高相关度材料、%d个中等相关度材料，建议优先使用前%d个附件。",
		strings.Join(shown, "、"), high, medium, recommend,
	)
}

// BuildLeadAnalysisReport assembles the full assessment for one lead:
// recommendations, risk factors and next actions derived from the score
// vector, plus the IDs of the most similar known leads.
func BuildLeadAnalysisReport(lead models.Lead, scores models.ScoreVector, similar []models.SimilarCompany, criteria models.SearchCriteria) models.AnalysisReport {
	similarIDs := make([]string, 0, len(similar))
	for _, s := range similar {
		similarIDs = append(similarIDs, s.Lead.ID)
	}

	return models.AnalysisReport{
		ReportID:        uuid.New().String(),
		LeadID:          lead.ID,
		CompanyName:     lead.CompanyName,
		Scores:          scores,
		SimilarLeadIDs:  similarIDs,
		Recommendations: recommendations(lead, scores),
		RiskFactors:     riskFactors(lead, scores),
		NextActions:     nextActions(lead, scores),
		GeneratedAt:     time.Now().UTC(),
	}
}

func recommendations(lead models.Lead, scores models.ScoreVector) []string {
	var recs []string

	switch {
	case scores.Overall > 0.8:
		recs = append(recs, "高质量线索，建议优先跟进")
	case scores.Overall > 0.6:
		recs = append(recs, "匹配度良好，可以考虑联系")
	default:
		recs = append(recs, "匹配度一般，需要进一步验证")
	}

	if scores.Industry < 0.5 {
		recs = append(recs, "行业匹配度较低，建议确认业务方向")
	}
	if scores.Engagement < 0.5 {
		recs = append(recs, "线索信息不完整，建议补充联系数据")
	}
	if strings.TrimSpace(lead.Website) == "" {
		recs = append(recs, "缺少网站信息，建议核实公司背景")
	}

	return recs
}

func riskFactors(lead models.Lead, scores models.ScoreVector) []string {
	var risks []string

	if scores.AIConfidence < 0.5 {
		risks = append(risks, "AI置信度较低，数据来源可能不可靠")
	}
	if lead.Email != "" && !strings.Contains(lead.Email, "@") {
		risks = append(risks, "邮箱格式异常")
	}
	if lead.Email == "" {
		risks = append(risks, "缺少联系邮箱")
	}
	if scores.Engagement < 0.3 {
		risks = append(risks, "可用联系信息过少")
	}
	if scores.Overall < 0.4 {
		risks = append(risks, "综合评分偏低")
	}

	return risks
}

func nextActions(lead models.Lead, scores models.ScoreVector) []string {
	var actions []string

	switch {
	case scores.Overall > 0.7:
		actions = append(actions, "发送个性化开发信", "电话跟进")
	case scores.Overall > 0.5:
		actions = append(actions, "发送产品资料", "持续关注")
	default:
		actions = append(actions, "补充线索数据", "验证联系方式")
	}

	if strings.TrimSpace(lead.ContactPerson) == "" {
		actions = append(actions, "寻找关键决策人")
	}
	if strings.TrimSpace(lead.Phone) == "" {
		actions = append(actions, "获取联系电话")
	}

	return actions
}
