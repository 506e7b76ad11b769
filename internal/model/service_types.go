package model

// 匹配层级
const (
	TierExactID   = "exact_id"
	TierExactHash = "exact_hash"
	TierFuzzy     = "fuzzy"
)

// SearchQuery 一次答案解析请求（已规约为内部表示）
type SearchQuery struct {
	QuestionID string   `json:"questionId"`
	Content    string   `json:"content"`
	Type       string   `json:"type"`
	Platform   string   `json:"platform"`
	Scope      string   `json:"scope"`
	Options    []string `json:"options,omitempty"`
}

// SearchResult 解析结果；Found=false 表示未命中，不是错误
type SearchResult struct {
	Found       bool    `json:"found"`
	Answer      string  `json:"answer,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	MatchTier   string  `json:"matchTier,omitempty"` // exact_id / exact_hash / fuzzy
	Source      string  `json:"source,omitempty"`
	Scope       string  `json:"scope,omitempty"` // 命中记录所在作用域
	QuestionID  string  `json:"questionId,omitempty"`
}

// BatchSearchResult 批量解析结果，Results 与请求顺序一一对应
type BatchSearchResult struct {
	Results  []SearchResult `json:"results"`
	Total    int            `json:"total"`
	Found    int            `json:"found"`
	NotFound int            `json:"notFound"`
}

// AnswerSubmission 答案提交（题目不存在时一并建题）
type AnswerSubmission struct {
	QuestionID  string   `json:"questionId"`
	Content     string   `json:"content"`
	Type        string   `json:"type"`
	Platform    string   `json:"platform"`
	Scope       string   `json:"scope"`
	Options     []string `json:"options,omitempty"`
	Value       string   `json:"value"`
	Explanation string   `json:"explanation,omitempty"`
	Source      string   `json:"source"`
	Contributor string   `json:"contributor,omitempty"`
	Confidence  float64  `json:"confidence"`
	Verified    bool     `json:"verified"`
}

// ValueGroup 冲突检测中按答案值聚合的统计
type ValueGroup struct {
	Value      string   `json:"value"`
	Count      int      `json:"count"`
	Confidence float64  `json:"confidence"` // 平均置信度
	Votes      int      `json:"votes"`      // 票数合计
	Sources    []string `json:"sources"`
}

// ConflictReport 答案冲突报告
type ConflictReport struct {
	QuestionID  string       `json:"questionId"`
	HasConflict bool         `json:"hasConflict"`
	AnswerCount int          `json:"answerCount"`
	UniqueCount int          `json:"uniqueCount"`
	Groups      []ValueGroup `json:"groups,omitempty"`
}

// AuditIssue 单项质量问题
type AuditIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // high / medium / low
	Message  string `json:"message"`
}

// AuditReport 题目质量审核报告
type AuditReport struct {
	QuestionID  string       `json:"questionId"`
	Score       int          `json:"score"` // 0-100
	Quality     string       `json:"quality"`
	AnswerCount int          `json:"answerCount"`
	UniqueCount int          `json:"uniqueCount"`
	Issues      []AuditIssue `json:"issues"`
	NeedsReview bool         `json:"needsReview"`
}

// FixReport 自动修复结果
type FixReport struct {
	QuestionID string   `json:"questionId"`
	Fixed      []string `json:"fixed"`
}

// CorrectionInstruction 纠错指令：答错后的下一步提交建议
type CorrectionInstruction struct {
	QuestionID    string   `json:"questionId"`
	Type          string   `json:"questionType"`
	CorrectAnswer string   `json:"correctAnswer"`
	Attempted     []string `json:"attemptedAnswers"`
	Next          string   `json:"nextAnswer"`
	ShouldCorrect bool     `json:"shouldCorrect"`
}

// FeedbackReport 一批批改反馈的处理结果
type FeedbackReport struct {
	Corrections []CorrectionInstruction `json:"corrections"`
	Warnings    []string                `json:"warnings,omitempty"` // 数据异常等非致命提示
	Attempts    map[string][]string     `json:"cache"`              // 处理后的尝试集快照
}

// StoreStats 题库统计
type StoreStats struct {
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"byType"`
}
