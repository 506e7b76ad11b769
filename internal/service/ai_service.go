package service

import (
	"answer_bank_backend/internal/config"
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/util"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// aiAnswerConfidence AI生成答案的固定置信度
const aiAnswerConfidence = 0.8

// AIService 外部答案生成器（OpenAI 兼容接口）。
// 解析引擎从不直接调用它：只有在分层解析未命中后由调用方触发。
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GeneratedAnswer AI生成的答案
type GeneratedAnswer struct {
	Value       string  `json:"value"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// AnswerQuestion 调用AI回答题目，返回解析出的答案与解析文本
func (s *AIService) AnswerQuestion(ctx context.Context, content, qType string, options []string) (*GeneratedAnswer, error) {
	if s.config.APIKey == "" || s.config.Model == "" {
		return nil, util.ErrAIServiceUnconfigured
	}

	qType = model.CanonicalType(qType)
	reqBody := ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []AIChatMessage{
			{
				Role:    "system",
				Content: "你是一个专业的在线教育答题助手，擅长回答各种类型的题目。请准确、简洁地回答题目，并提供清晰的解析。",
			},
			{
				Role:    "user",
				Content: buildPrompt(content, qType, options),
			},
		},
		Temperature: 0.3, // 降低温度以获得更确定的答案
		MaxTokens:   1000,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var completion ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, err
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("AI API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("AI API returned no choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	value, explanation := SplitAnswerText(text, qType)
	return &GeneratedAnswer{
		Value:       value,
		Explanation: explanation,
		Confidence:  aiAnswerConfidence,
	}, nil
}

func buildPrompt(content, qType string, options []string) string {
	typeNames := map[string]string{
		model.TypeSingleChoice:   "单选题",
		model.TypeMultipleChoice: "多选题",
		model.TypeTrueFalse:      "判断题",
		model.TypeFillBlank:      "填空题",
		model.TypeEssay:          "简答题",
	}
	typeName := typeNames[qType]
	if typeName == "" {
		typeName = "题目"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "请回答以下%s：\n\n题目：%s\n\n", typeName, content)
	if len(options) > 0 {
		b.WriteString("选项：\n")
		for i, opt := range options {
			fmt.Fprintf(&b, "%c. %s\n", 'A'+i, opt)
		}
		b.WriteString("\n")
	}

	switch qType {
	case model.TypeSingleChoice, model.TypeMultipleChoice:
		b.WriteString("请直接给出答案选项（如：A、B、AB等），并在答案后提供简要解析。")
	case model.TypeTrueFalse:
		b.WriteString("请直接给出答案（正确/错误），并在答案后提供简要解析。")
	case model.TypeFillBlank:
		b.WriteString("请直接给出填空答案，并在答案后提供简要解析。")
	default:
		b.WriteString("请直接给出答案，并在答案后提供简要解析。")
	}
	return b.String()
}

var (
	letterRunPattern   = regexp.MustCompile(`[A-Z]+`)
	explanationPattern = regexp.MustCompile(`解析[：:]|说明[：:]|Explanation[：:]`)
	answerPrefix       = regexp.MustCompile(`^(答案|Answer)[：:]\s*`)
)

// SplitAnswerText 把AI回复拆成答案与解析。
// 没有显式分隔符时这是尽力而为的启发式拆分，对部分输入天然存在歧义：
// 选择题取首个大写字母连串，判断题找正确/错误关键词，其余取首行。
func SplitAnswerText(text, qType string) (string, string) {
	text = strings.TrimSpace(text)
	var answer string

	switch qType {
	case model.TypeSingleChoice, model.TypeMultipleChoice:
		if run := letterRunPattern.FindString(text); run != "" {
			if qType == model.TypeSingleChoice {
				answer = run[:1]
			} else {
				letters := strings.Split(run, "")
				answer = strings.Join(letters, ",")
			}
		} else {
			answer = firstLine(text)
		}
	case model.TypeTrueFalse:
		switch {
		case strings.Contains(text, "正确") || strings.Contains(text, "对"):
			answer = "正确"
		case strings.Contains(text, "错误") || strings.Contains(text, "错"):
			answer = "错误"
		default:
			answer = firstLine(text)
		}
	default:
		answer = answerPrefix.ReplaceAllString(firstLine(text), "")
	}

	explanation := text
	if loc := explanationPattern.FindStringIndex(text); loc != nil {
		explanation = strings.TrimSpace(text[loc[1]:])
	}
	return strings.TrimSpace(answer), explanation
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
