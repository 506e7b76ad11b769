package util

import (
	"sort"
	"strings"
)

// markerStripRounds 控制标记剥离的重扫次数上限，保证嵌套标记场景下依然有界终止
const markerStripRounds = 3

// markerKeywords 题干里平台注入的控制标记关键字（如防作弊水印），匹配时忽略大小写
var markerKeywords = []string{"csrf", "token"}

// NormalizeForMatch 生成仅用于相似度比较的规范形态：
// 去除标签、剥离括号控制标记、折叠空白、去首尾空白、小写化。
// 存储层始终保留原始文本，此函数只在比较时调用。
func NormalizeForMatch(s string) string {
	s = stripTags(s)
	for i := 0; i < markerStripRounds; i++ {
		stripped, changed := stripBracketMarkers(s)
		s = stripped
		if !changed {
			break
		}
	}
	s = stripBareMarker(s, "csrf()")
	return strings.ToLower(collapseWhitespace(s))
}

// NormalizeAnswerValue 答案值的比较形态：
// 单字母与逗号分隔的字母集合统一为大写、排序、去重后逗号连接，
// 其余文本折叠空白并小写。含逗号的自由文本（如 "1,000"）不按字母集合处理。
func NormalizeAnswerValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if letters, ok := parseLetterSet(v); ok {
		return letters
	}
	return strings.ToLower(collapseWhitespace(v))
}

// parseLetterSet 仅当逗号分隔的每一段都恰好是一个字母时视为选项集合
func parseLetterSet(v string) (string, bool) {
	seen := make(map[string]bool)
	var letters []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if len(part) != 1 {
			return "", false
		}
		c := part[0]
		if !(c >= 'A' && c <= 'Z') && !(c >= 'a' && c <= 'z') {
			return "", false
		}
		upper := strings.ToUpper(part)
		if !seen[upper] {
			seen[upper] = true
			letters = append(letters, upper)
		}
	}
	sort.Strings(letters)
	return strings.Join(letters, ","), true
}

// stripTags 单遍移除 <...> 标签；未闭合的 '<' 原样保留
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	start := -1
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '<':
			if depth == 0 {
				start = i
			}
			depth++
		case r == '>' && depth > 0:
			depth--
			if depth == 0 {
				start = -1
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	if depth > 0 && start >= 0 {
		// 未闭合的标签前缀按普通文本处理
		b.WriteString(string(runes[start:]))
	}
	return b.String()
}

type bracketPair struct {
	open  rune
	close rune
}

var markerBrackets = []bracketPair{
	{'【', '】'},
	{'[', ']'},
	{'{', '}'},
}

type openMark struct {
	kind int // markerBrackets 下标
	pos  int // out 中左括号的位置
}

// stripBracketMarkers 基于显式栈的标记剥离：配对的括号若包裹控制标记关键字
// 则整段（含括号）丢弃，否则原样保留。不依赖正则替换到不动点。
func stripBracketMarkers(s string) (string, bool) {
	out := make([]rune, 0, len(s))
	var stack []openMark
	changed := false

	for _, r := range s {
		if kind := bracketKind(r, true); kind >= 0 {
			stack = append(stack, openMark{kind: kind, pos: len(out)})
			out = append(out, r)
			continue
		}
		if kind := bracketKind(r, false); kind >= 0 && len(stack) > 0 && stack[len(stack)-1].kind == kind {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			payload := string(out[top.pos+1:])
			if isMarkerPayload(payload) {
				out = out[:top.pos]
				changed = true
			} else {
				out = append(out, r)
			}
			continue
		}
		out = append(out, r)
	}
	return string(out), changed
}

func bracketKind(r rune, opener bool) int {
	for i, p := range markerBrackets {
		if opener && r == p.open {
			return i
		}
		if !opener && r == p.close {
			return i
		}
	}
	return -1
}

func isMarkerPayload(payload string) bool {
	payload = strings.ToLower(strings.TrimSpace(payload))
	if payload == "" {
		return false
	}
	for _, kw := range markerKeywords {
		if strings.Contains(payload, kw) {
			return true
		}
	}
	return false
}

// stripBareMarker 移除不带括号的裸标记（如 csrf()），忽略大小写
func stripBareMarker(s, marker string) string {
	lower := strings.ToLower(s)
	marker = strings.ToLower(marker)
	var b strings.Builder
	i := 0
	for {
		j := strings.Index(lower[i:], marker)
		if j < 0 {
			b.WriteString(s[i:])
			return b.String()
		}
		b.WriteString(s[i : i+j])
		i += j + len(marker)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
