package util

import "testing"

func TestSequenceRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"完全相同", "abcdef", "abcdef", 1.0},
		{"双空串", "", "", 1.0},
		{"无公共字符", "abc", "xyz", 0.0},
		{"部分重叠", "abcd", "bcde", 0.75}, // 2*3/(4+4)
		{"一侧为空", "abc", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SequenceRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("SequenceRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSequenceRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"what is a pointer", "what is an array"},
		{"下列说法正确的是", "下列说法错误的是"},
		{"abcd", "bcde"},
	}
	for _, p := range pairs {
		if SequenceRatio(p[0], p[1]) != SequenceRatio(p[1], p[0]) {
			t.Errorf("SequenceRatio not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestTokenJaccard(t *testing.T) {
	if got := TokenJaccard("", "anything"); got != 0 {
		t.Errorf("empty side should give 0, got %v", got)
	}
	if got := TokenJaccard("相同的文本内容", "相同的文本内容"); got != 1.0 {
		t.Errorf("identical text should give 1.0, got %v", got)
	}
	if got := TokenJaccard("aaaa", "zzzz"); got != 0 {
		t.Errorf("disjoint text should give 0, got %v", got)
	}
}

func TestSimilarity(t *testing.T) {
	// 相同文本满分
	if got := Similarity("c语言中指针的作用是什么", "c语言中指针的作用是什么"); got != 1.0 {
		t.Errorf("identical text should score 1.0, got %v", got)
	}

	// 相近文本得分必须高于无关文本
	base := "下列关于c语言指针的说法正确的是"
	near := "下列关于c语言数组的说法正确的是"
	far := "二战爆发于哪一年"
	if Similarity(base, near) <= Similarity(base, far) {
		t.Error("near-duplicate should outscore unrelated text")
	}

	// 对称性
	if Similarity(base, near) != Similarity(near, base) {
		t.Error("Similarity should be symmetric")
	}

	// 值域
	for _, pair := range [][2]string{{base, near}, {base, far}, {"", base}} {
		got := Similarity(pair[0], pair[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %v out of [0,1]", pair[0], pair[1], got)
		}
	}
}
