package util

import "testing"

func TestNormalizeForMatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"纯文本小写折叠", "  What   IS\tGo? ", "what is go?"},
		{"剥离HTML标签", "<p>Hello <b>World</b></p>", "hello world"},
		{"中文括号控制标记", "题目【csrf:a1b2c3】内容", "题目内容"},
		{"方括号token标记", "[token=xyz] 下列说法正确的是", "下列说法正确的是"},
		{"花括号标记", "{CSRF}判断题", "判断题"},
		{"非标记括号保留", "选项[A]正确", "选项[a]正确"},
		{"嵌套标记只删内层", "外【内【csrf】层】部", "外【内层】部"},
		{"裸csrf调用", "CSRF()What is a pointer?", "what is a pointer?"},
		{"未闭合小于号保留", "a < b", "a < b"},
		{"空串", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeForMatch(tt.input); got != tt.want {
				t.Errorf("NormalizeForMatch(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 同一题干不管带不带平台水印，规范形态必须一致，否则哈希去重失效
func TestNormalizeForMatchStableUnderMarkers(t *testing.T) {
	clean := "下列关于指针的说法正确的是"
	variants := []string{
		clean,
		"【csrf:deadbeef】" + clean,
		clean + "[token-123]",
		"<span>" + clean + "</span>",
	}
	want := NormalizeForMatch(clean)
	for _, v := range variants {
		if got := NormalizeForMatch(v); got != want {
			t.Errorf("NormalizeForMatch(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestNormalizeAnswerValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"b", "B"},
		{"c,a,b", "A,B,C"},
		{"A, a ,B", "A,B"},
		{" B , D ", "B,D"},
		{"正确", "正确"},
		{"  The   Answer ", "the answer"},
		{"", ""},
		// 含逗号的自由文本不能被当作选项集合拆散
		{"1,000", "1,000"},
		{"Paris, France", "paris, france"},
		{"AB,C", "ab,c"},
	}

	for _, tt := range tests {
		if got := NormalizeAnswerValue(tt.input); got != tt.want {
			t.Errorf("NormalizeAnswerValue(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// 字母集合比较对顺序不敏感
func TestNormalizeAnswerValueOrderInsensitive(t *testing.T) {
	if NormalizeAnswerValue("A,C,B") != NormalizeAnswerValue("b,c,a") {
		t.Error("letter sets with same members should normalize equal")
	}
}
