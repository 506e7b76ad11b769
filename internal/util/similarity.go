package util

import (
	"strings"
	"sync"

	"github.com/go-ego/gse"
)

// 相似度加权：字符序列占 0.6，词集合 Jaccard 占 0.4
const (
	charRatioWeight    = 0.6
	tokenJaccardWeight = 0.4
)

var (
	segmenter gse.Segmenter
	segOnce   sync.Once
)

func loadSegmenter() {
	segOnce.Do(func() {
		// 内置词典，中文题干没有空格分词边界，需要真正的分词器
		_ = segmenter.LoadDict()
	})
}

// Similarity 计算两个已规范化文本的相似度，返回 [0,1]。
// 纯函数：确定、对称、无共享可变状态、无 I/O。
func Similarity(a, b string) float64 {
	return charRatioWeight*SequenceRatio(a, b) + tokenJaccardWeight*TokenJaccard(a, b)
}

// SequenceRatio 经典 sequence-matcher 比率：2*M / (len(a)+len(b))，
// M 为最长匹配块的字符总数。相同串为 1.0，无公共子串为 0.0，对称。
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1.0
	}
	matched := totalMatching(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// totalMatching 递归切分求所有匹配块长度之和（difflib 的匹配块算法）
func totalMatching(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	total := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, size := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if size == 0 {
			continue
		}
		total += size
		queue = append(queue,
			span{s.alo, i, s.blo, j},
			span{i + size, s.ahi, j + size, s.bhi},
		)
	}
	return total
}

// longestMatch 在 a[alo:ahi] 与 b[blo:bhi] 中找最长公共块，
// 等长时取 a 中最靠前、再取 b 中最靠前的那个，保证确定性
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}

// TokenJaccard 词集合 Jaccard 相似度：分词取交并比，任一侧为空集返回 0。
// 分词产不出词（如纯符号）时退化为字符二元组。
func TokenJaccard(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for t := range sa {
		if _, ok := sb[t]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	loadSegmenter()

	set := make(map[string]struct{})
	for _, w := range segmenter.Cut(s, true) {
		w = strings.TrimSpace(w)
		if w != "" {
			set[w] = struct{}{}
		}
	}
	if len(set) > 0 {
		return set
	}
	return bigramSet(s)
}

func bigramSet(s string) map[string]struct{} {
	runes := []rune(s)
	set := make(map[string]struct{})
	if len(runes) == 1 {
		set[string(runes)] = struct{}{}
		return set
	}
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}
