package service

import (
	"answer_bank_backend/internal/config"
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/util"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSplitAnswerText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		qType    string
		wantVal  string
		wantExpl string
	}{
		{
			name:    "单选取首个字母",
			text:    "答案是B。\n解析：因为指针保存的是地址。",
			qType:   model.TypeSingleChoice,
			wantVal: "B", wantExpl: "因为指针保存的是地址。",
		},
		{
			name:    "多选拆成集合",
			text:    "ACD\n解析：三个选项都描述正确。",
			qType:   model.TypeMultipleChoice,
			wantVal: "A,C,D", wantExpl: "三个选项都描述正确。",
		},
		{
			name:    "判断题关键词",
			text:    "这个说法是错误的，原因如下",
			qType:   model.TypeTrueFalse,
			wantVal: "错误",
		},
		{
			name:    "填空取首行去前缀",
			text:    "答案：1939年\n解析：二战于1939年爆发。",
			qType:   model.TypeFillBlank,
			wantVal: "1939年", wantExpl: "二战于1939年爆发。",
		},
		{
			name:    "无分隔符时整段作为解析",
			text:    "C",
			qType:   model.TypeSingleChoice,
			wantVal: "C", wantExpl: "C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, expl := SplitAnswerText(tt.text, tt.qType)
			if val != tt.wantVal {
				t.Errorf("value = %q, want %q", val, tt.wantVal)
			}
			if tt.wantExpl != "" && expl != tt.wantExpl {
				t.Errorf("explanation = %q, want %q", expl, tt.wantExpl)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("下列哪个是合法的变量名", model.TypeSingleChoice, []string{"1abc", "_abc", "a-b"})

	for _, want := range []string{"单选题", "下列哪个是合法的变量名", "A. 1abc", "B. _abc", "C. a-b"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAnswerQuestionUnconfigured(t *testing.T) {
	svc := NewAIService(config.AIConfig{})
	_, err := svc.AnswerQuestion(context.Background(), "题干", model.TypeEssay, nil)
	if !errors.Is(err, util.ErrAIServiceUnconfigured) {
		t.Errorf("want ErrAIServiceUnconfigured, got %v", err)
	}
}
