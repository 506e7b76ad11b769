package model

import (
	"encoding/json"
	"strings"
)

// GradingOption 批改反馈里的选项
type GradingOption struct {
	Content string `json:"content"`
	IsTrue  bool   `json:"isTrue"`
}

// GradingItem 规约后的单题批改结果
type GradingItem struct {
	QuestionID string
	Type       string
	Incorrect  bool // 平台明确标记答错
	Options    []GradingOption
	Answer     string // 显式给出的正确答案（可能为空）
}

// GradingBatch 一批批改反馈
type GradingBatch struct {
	Items []GradingItem
}

// LooseGradingItem 外部批改数据的宽松形态：字段名在不同平台间不统一，
// 这里枚举所有已知别名，由 Canonical 一次性收敛（之后内部只消费 GradingItem）
type LooseGradingItem struct {
	ID              string          `json:"id"`
	QuestionID      string          `json:"questionId"`
	QuestionIDSnake string          `json:"question_id"`
	Type            string          `json:"type"`
	QuestionType    string          `json:"questionType"`
	Correct         *bool           `json:"correct"`
	Answer          string          `json:"answer"`
	CorrectAnswer   string          `json:"correctAnswer"`
	RightAnswer     string          `json:"rightAnswer"`
	OptionList      []GradingOption `json:"questionOptionList"`
}

// Canonical 规约为内部表示；题目标识取第一个非空别名
func (l *LooseGradingItem) Canonical() GradingItem {
	id := firstNonEmpty(l.ID, l.QuestionID, l.QuestionIDSnake)
	qType := CanonicalType(firstNonEmpty(l.Type, l.QuestionType))

	// 只有显式 correct=false 才算答错；缺失视为已答对，不触发纠错
	incorrect := l.Correct != nil && !*l.Correct

	return GradingItem{
		QuestionID: id,
		Type:       qType,
		Incorrect:  incorrect,
		Options:    l.OptionList,
		Answer:     firstNonEmpty(l.Answer, l.CorrectAnswer, l.RightAnswer),
	}
}

// CorrectValue 提取正确答案：优先选项标记，其次显式答案字段；找不到返回空串
func (g *GradingItem) CorrectValue() string {
	var letters []string
	for i, opt := range g.Options {
		if opt.IsTrue {
			letters = append(letters, string(rune('A'+i)))
		}
	}
	if len(letters) > 0 {
		return strings.Join(letters, ",")
	}
	return strings.TrimSpace(g.Answer)
}

// OptionLetters 选项字母序列（A、B、C...），没有选项时返回nil
func (g *GradingItem) OptionLetters() []string {
	if len(g.Options) == 0 {
		return nil
	}
	letters := make([]string, len(g.Options))
	for i := range g.Options {
		letters[i] = string(rune('A' + i))
	}
	return letters
}

type looseGradingGroup struct {
	Lists []LooseGradingItem `json:"lists"`
}

// looseGradingPayload 兼容两种上报形态：扁平的 items 数组，
// 以及平台原始的 resultObject（按题型分组）
type looseGradingPayload struct {
	Items        []LooseGradingItem           `json:"items"`
	ResultObject map[string]looseGradingGroup `json:"resultObject"`
}

// resultObject 的题型分组键，固定顺序遍历保证输出确定
var gradingGroupKeys = []string{"danxuan", "duoxuan", "panduan", "tiankong", "jianda"}

// ParseGradingBatch 解析批改反馈并规约为内部表示
func ParseGradingBatch(data []byte) (GradingBatch, error) {
	var payload looseGradingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return GradingBatch{}, err
	}

	var items []GradingItem
	for i := range payload.Items {
		items = append(items, payload.Items[i].Canonical())
	}
	for _, key := range gradingGroupKeys {
		group, ok := payload.ResultObject[key]
		if !ok {
			continue
		}
		groupType := CanonicalType(key)
		for i := range group.Lists {
			item := group.Lists[i].Canonical()
			if item.Type == "" {
				item.Type = groupType
			}
			items = append(items, item)
		}
	}
	return GradingBatch{Items: items}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
