package model

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// 题目类型
const (
	TypeSingleChoice   = "single_choice"
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeFillBlank      = "fill_blank"
	TypeEssay          = "essay"
)

// ScopeGlobal 公共答案库作用域；非空的 Scope 表示贡献者私有库
const ScopeGlobal = ""

// Question 题目表，冗余存储当前最佳答案（best answer 镜像字段由聚合服务维护）
type Question struct {
	BaseModel
	QuestionID  string          `gorm:"size:100;index:idx_question_platform" json:"questionId"` // 平台题目ID
	Content     string          `gorm:"type:text;not null" json:"content"`                      // 题干，保留原始文本
	ContentHash string          `gorm:"size:32;index:idx_hash_scope" json:"contentHash"`        // 规范化题干的MD5，用于去重
	Type        string          `gorm:"size:50;not null" json:"type"`
	Platform    string          `gorm:"size:50;index:idx_question_platform" json:"platform"`
	Scope       string          `gorm:"size:100;index:idx_hash_scope" json:"scope"` // 空串为公共库
	Options     json.RawMessage `gorm:"type:json" json:"options"`                   // JSON: []string

	// 最佳答案镜像字段
	Answer      string  `gorm:"type:text" json:"answer"`
	Explanation string  `gorm:"type:text" json:"explanation"`
	Source      string  `gorm:"size:30" json:"source"`
	Confidence  float64 `gorm:"default:0" json:"confidence"`
	Verified    bool    `gorm:"default:false" json:"verified"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList 解析选项JSON，解析失败返回nil
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// HashContent 计算规范化题干的内容哈希
func HashContent(normalized string) string {
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// typeAliases 外部题型表示到内部常量的映射，边界处一次性转换
var typeAliases = map[string]string{
	"0":               TypeSingleChoice,
	"1":               TypeMultipleChoice,
	"2":               TypeTrueFalse,
	"3":               TypeFillBlank,
	"4":               TypeEssay,
	"danxuan":         TypeSingleChoice,
	"duoxuan":         TypeMultipleChoice,
	"panduan":         TypeTrueFalse,
	"tiankong":        TypeFillBlank,
	"jianda":          TypeEssay,
	"single-choice":   TypeSingleChoice,
	"multi-choice":    TypeMultipleChoice,
	"multiple-choice": TypeMultipleChoice,
	"boolean":         TypeTrueFalse,
	"judge":           TypeTrueFalse,
	"fill-blank":      TypeFillBlank,
	"free-text":       TypeEssay,
	"short_answer":    TypeEssay,
}

// CanonicalType 将外部题型表示规约为内部常量，未知类型原样小写返回
func CanonicalType(t string) string {
	key := strings.ToLower(strings.TrimSpace(t))
	if canonical, ok := typeAliases[key]; ok {
		return canonical
	}
	switch key {
	case TypeSingleChoice, TypeMultipleChoice, TypeTrueFalse, TypeFillBlank, TypeEssay:
		return key
	}
	return key
}
