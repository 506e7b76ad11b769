package service

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/util"
	"answer_bank_backend/pkg/monitoring"
	"context"
	"fmt"
	"sort"
)

// 质量分扣减项
const (
	deductNoAnswer       = 50
	deductConflict       = 20
	deductLowConfidence  = 10
	deductNegativeVotes  = 15
	deductNotVerified    = 5
	deductNoAccepted     = 15
	deductMultiAccepted  = 30
	lowConfidenceFloor   = 0.7
	negativeVoteFloor    = -2
	autoFixDeleteVotes   = -5
	defaultBatchAuditCap = 100
)

// QualityService 质量审核：对答案库做批量体检并给出可修复项。
// 审核本身只读；修复动作全部经由聚合服务的临界区执行。
type QualityService struct {
	store   Store
	answers *AnswerService
}

func NewQualityService(store Store, answers *AnswerService) *QualityService {
	return &QualityService{store: store, answers: answers}
}

// Audit 审核单个题目，产出 0-100 的质量分与问题清单。
// 双 accepted 属于不变量破坏，只报告不纠正（显式 AutoFix 才动数据）。
func (s *QualityService) Audit(ctx context.Context, questionID string) (*model.AuditReport, error) {
	question, err := s.store.FindQuestionByQIDString(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return s.auditQuestion(ctx, question)
}

func (s *QualityService) auditQuestion(ctx context.Context, question *model.Question) (*model.AuditReport, error) {
	answers, err := s.store.ListAnswers(ctx, question.ID)
	if err != nil {
		return nil, err
	}

	score := 100
	var issues []model.AuditIssue
	deduct := func(points int, issue model.AuditIssue) {
		score -= points
		issues = append(issues, issue)
	}

	uniqueValues := make(map[string]bool)
	lowConfidence := 0
	heavyDownvoted := 0
	verified := 0
	accepted := 0
	for i := range answers {
		uniqueValues[util.NormalizeAnswerValue(answers[i].Value)] = true
		if answers[i].Confidence < lowConfidenceFloor {
			lowConfidence++
		}
		if answers[i].VoteCount < negativeVoteFloor {
			heavyDownvoted++
		}
		if answers[i].Verified {
			verified++
		}
		if answers[i].Accepted {
			accepted++
		}
	}

	if len(answers) == 0 {
		deduct(deductNoAnswer, model.AuditIssue{
			Type: "no_answer", Severity: "high", Message: "题目没有任何答案",
		})
	}
	if len(uniqueValues) > 1 {
		deduct(deductConflict, model.AuditIssue{
			Type: "conflict", Severity: "medium",
			Message: fmt.Sprintf("存在%d个不同答案", len(uniqueValues)),
		})
	}
	if lowConfidence > 0 {
		deduct(deductLowConfidence, model.AuditIssue{
			Type: "low_confidence", Severity: "low",
			Message: fmt.Sprintf("%d个答案置信度低于%.1f", lowConfidence, lowConfidenceFloor),
		})
	}
	if heavyDownvoted > 0 {
		deduct(deductNegativeVotes, model.AuditIssue{
			Type: "negative_votes", Severity: "medium",
			Message: fmt.Sprintf("%d个答案负投票超过%d", heavyDownvoted, -negativeVoteFloor),
		})
	}
	if len(answers) > 0 && verified == 0 {
		deduct(deductNotVerified, model.AuditIssue{
			Type: "not_verified", Severity: "low", Message: "没有经过人工验证的答案",
		})
	}
	if len(answers) > 0 && accepted == 0 {
		deduct(deductNoAccepted, model.AuditIssue{
			Type: "no_best_answer", Severity: "medium", Message: "没有标记最佳答案",
		})
	} else if accepted > 1 {
		// 重算之后不应出现，出现说明有写路径绕过了临界区
		deduct(deductMultiAccepted, model.AuditIssue{
			Type: "multiple_best_answers", Severity: "high",
			Message: fmt.Sprintf("有%d个最佳答案标记", accepted),
		})
	}

	if score < 0 {
		score = 0
	}
	monitoring.AuditScores.Observe(float64(score))

	return &model.AuditReport{
		QuestionID:  question.QuestionID,
		Score:       score,
		Quality:     qualityTier(score),
		AnswerCount: len(answers),
		UniqueCount: len(uniqueValues),
		Issues:      issues,
		NeedsReview: len(issues) > 0,
	}, nil
}

// BatchAudit 批量审核至多 limit 道题，低分在前
func (s *QualityService) BatchAudit(ctx context.Context, limit int) ([]model.AuditReport, error) {
	if limit <= 0 {
		limit = defaultBatchAuditCap
	}
	questions, err := s.store.ListQuestions(ctx, limit)
	if err != nil {
		return nil, err
	}

	reports := make([]model.AuditReport, 0, len(questions))
	for i := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report, err := s.auditQuestion(ctx, &questions[i])
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Score < reports[j].Score
	})
	return reports, nil
}

// AutoFix 自动修复：缺最佳答案则重算；删除负投票 ≤ -5 的未验证答案后再重算。
// 删除是质量修复唯一允许的实体清除路径。
func (s *QualityService) AutoFix(ctx context.Context, questionID string) (*model.FixReport, error) {
	question, err := s.store.FindQuestionByQIDString(ctx, questionID)
	if err != nil {
		return nil, err
	}
	report, err := s.auditQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	fix := &model.FixReport{QuestionID: question.QuestionID, Fixed: []string{}}
	if !report.NeedsReview {
		return fix, nil
	}

	missingBest := false
	for _, issue := range report.Issues {
		if issue.Type == "no_best_answer" {
			missingBest = true
		}
	}

	answers, err := s.store.ListAnswers(ctx, question.ID)
	if err != nil {
		return nil, err
	}
	var toDelete []uint
	for i := range answers {
		if !answers[i].Verified && answers[i].VoteCount <= autoFixDeleteVotes {
			toDelete = append(toDelete, answers[i].ID)
		}
	}

	if len(toDelete) > 0 {
		if err := s.answers.DeleteAndRecompute(ctx, question.ID, toDelete); err != nil {
			return nil, err
		}
		for _, id := range toDelete {
			fix.Fixed = append(fix.Fixed, fmt.Sprintf("删除负投票答案: %d", id))
		}
		if missingBest {
			fix.Fixed = append(fix.Fixed, "设置最佳答案")
		}
		return fix, nil
	}

	if missingBest && len(answers) > 0 {
		if err := s.answers.RecomputeBest(ctx, question.ID); err != nil {
			return nil, err
		}
		fix.Fixed = append(fix.Fixed, "设置最佳答案")
	}
	return fix, nil
}

func qualityTier(score int) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "good"
	case score >= 60:
		return "fair"
	default:
		return "poor"
	}
}
