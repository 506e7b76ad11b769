package service

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/util"
	"answer_bank_backend/pkg/logger"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// defaultOptionLetters 未提供选项时的兜底选项序列
var defaultOptionLetters = []string{"A", "B", "C", "D", "E", "F"}

// attemptRecord 单道题的尝试集：有序、去重、按规范化值比较。
// 互斥锁保证同一题目的尝试集变更串行，不同题目互不阻塞。
type attemptRecord struct {
	mu     sync.Mutex
	values []string
}

// CorrectionTracker 纠错服务：维护每道题的已尝试答案，
// 依据批改反馈计算下一个应提交的答案。显式注入实例，不使用进程级单例。
type CorrectionTracker struct {
	records sync.Map // questionID -> *attemptRecord
}

func NewCorrectionTracker() *CorrectionTracker {
	return &CorrectionTracker{}
}

func (t *CorrectionTracker) record(questionID string) *attemptRecord {
	v, _ := t.records.LoadOrStore(questionID, &attemptRecord{})
	return v.(*attemptRecord)
}

// Attempted 返回已尝试答案的快照
func (t *CorrectionTracker) Attempted(questionID string) []string {
	v, ok := t.records.Load(questionID)
	if !ok {
		return nil
	}
	rec := v.(*attemptRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]string(nil), rec.values...)
}

// Record 记录一次尝试；重复值不追加
func (t *CorrectionTracker) Record(questionID, value string) {
	normalized := util.NormalizeAnswerValue(value)
	if normalized == "" {
		return
	}
	rec := t.record(questionID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.append(normalized)
}

func (r *attemptRecord) append(normalized string) {
	for _, v := range r.values {
		if v == normalized {
			return
		}
	}
	r.values = append(r.values, normalized)
}

func (r *attemptRecord) contains(normalized string) bool {
	for _, v := range r.values {
		if v == normalized {
			return true
		}
	}
	return false
}

// HasAttempted 检查某个答案是否已尝试过
func (t *CorrectionTracker) HasAttempted(questionID, value string) bool {
	v, ok := t.records.Load(questionID)
	if !ok {
		return false
	}
	rec := v.(*attemptRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.contains(util.NormalizeAnswerValue(value))
}

// Reset 清除一道题的尝试记录
func (t *CorrectionTracker) Reset(questionID string) {
	t.records.Delete(questionID)
}

// NextCandidate 排除法给出下一个应尝试的选项，返回空串表示无候选。
// 判断题：第一次给首个选项，第二次给互补选项，之后不再给。
// 单个错选即可断定互补项正确，调用方应直接采用而不是再来问。
// 单选题：固定顺序里第一个未尝试的选项。多选/填空/简答不支持排除法。
func (t *CorrectionTracker) NextCandidate(questionID, qType string, optionLetters []string) string {
	letters := optionLetters
	if len(letters) == 0 {
		letters = defaultOptionLetters
	}

	switch model.CanonicalType(qType) {
	case model.TypeTrueFalse:
		attempted := t.Attempted(questionID)
		if len(attempted) >= 2 {
			return ""
		}
		pair := letters
		if len(pair) > 2 {
			pair = pair[:2]
		}
		for _, letter := range pair {
			if !containsValue(attempted, util.NormalizeAnswerValue(letter)) {
				return letter
			}
		}
		return ""
	case model.TypeSingleChoice:
		attempted := t.Attempted(questionID)
		for _, letter := range letters {
			if !containsValue(attempted, util.NormalizeAnswerValue(letter)) {
				return letter
			}
		}
		return ""
	default:
		return ""
	}
}

func containsValue(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// RecordFeedback 处理一批批改反馈。对每道答错的题提取真实正确答案并
// 生成纠错指令；正确答案已在尝试集里却仍判错的属于数据异常，
// 记一条警告后跳过，不产出指令。
func (t *CorrectionTracker) RecordFeedback(batch model.GradingBatch) *model.FeedbackReport {
	report := &model.FeedbackReport{
		Attempts: make(map[string][]string),
	}

	for i := range batch.Items {
		item := &batch.Items[i]
		if item.QuestionID == "" {
			logger.Log.Warn("批改反馈缺少题目标识，跳过")
			continue
		}
		if !item.Incorrect {
			continue
		}

		correct := item.CorrectValue()
		if correct == "" {
			logger.Log.Warn("未能从批改反馈中提取正确答案", zap.String("questionId", item.QuestionID))
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("题目 %s 未找到正确答案", item.QuestionID))
			continue
		}
		normalized := util.NormalizeAnswerValue(correct)

		rec := t.record(item.QuestionID)
		rec.mu.Lock()
		if rec.contains(normalized) {
			rec.mu.Unlock()
			logger.Log.Warn("正确答案已尝试过但仍判错，疑似数据异常",
				zap.String("questionId", item.QuestionID),
				zap.String("answer", correct))
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("题目 %s 的正确答案 %s 已尝试过但仍判错", item.QuestionID, correct))
			continue
		}
		snapshot := append([]string(nil), rec.values...)
		rec.append(normalized)
		rec.mu.Unlock()

		next := correct
		switch item.Type {
		case model.TypeSingleChoice, model.TypeTrueFalse:
			// 单选/判断只提交一个值
			next = strings.SplitN(correct, ",", 2)[0]
		}

		report.Corrections = append(report.Corrections, model.CorrectionInstruction{
			QuestionID:    item.QuestionID,
			Type:          item.Type,
			CorrectAnswer: correct,
			Attempted:     snapshot,
			Next:          next,
			ShouldCorrect: true,
		})
	}

	t.records.Range(func(key, value any) bool {
		rec := value.(*attemptRecord)
		rec.mu.Lock()
		report.Attempts[key.(string)] = append([]string(nil), rec.values...)
		rec.mu.Unlock()
		return true
	})
	return report
}
