package model

import "strings"

// 答案来源
const (
	SourceSystem         = "system"          // 官方题库导入
	SourceCrowdVerified  = "crowd_verified"  // 平台批改确认过的答案
	SourceContributor    = "contributor"     // 用户贡献
	SourceModelGenerated = "model_generated" // AI生成
)

// Answer 答案表，一道题可挂多个候选答案，聚合服务保证最多一条 Accepted
type Answer struct {
	BaseModel
	QuestionRef uint    `gorm:"column:question_ref;index;not null" json:"questionRef"` // questions.id
	Value       string  `gorm:"type:text;not null" json:"value"`                       // 多选为排序后逗号连接的字母集合
	Explanation string  `gorm:"type:text" json:"explanation"`
	Source      string  `gorm:"size:30;index" json:"source"`
	Contributor string  `gorm:"size:100" json:"contributor"`
	Confidence  float64 `gorm:"default:0" json:"confidence"` // [0,1]
	VoteCount   int     `gorm:"default:0" json:"voteCount"`
	Accepted    bool    `gorm:"default:false" json:"accepted"`
	Verified    bool    `gorm:"default:false" json:"verified"`
}

func (Answer) TableName() string {
	return "answers"
}

// sourceAliases 旧版/外部来源标识映射
var sourceAliases = map[string]string{
	"ai":                SourceModelGenerated,
	"llm":               SourceModelGenerated,
	"user":              SourceContributor,
	"api_key":           SourceContributor,
	"public":            SourceContributor,
	"platform_verified": SourceCrowdVerified,
	"official":          SourceSystem,
}

// CanonicalSource 规约答案来源标识，未知来源按贡献者处理
func CanonicalSource(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := sourceAliases[key]; ok {
		return canonical
	}
	switch key {
	case SourceSystem, SourceCrowdVerified, SourceContributor, SourceModelGenerated:
		return key
	case "":
		return SourceContributor
	}
	return SourceContributor
}
