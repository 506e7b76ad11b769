package service

import (
	"answer_bank_backend/internal/config"
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/util"
	"context"
	"testing"
)

func seedQuestion(t *testing.T, store *mockStore, q model.Question) *model.Question {
	t.Helper()
	if q.ContentHash == "" && q.Content != "" {
		q.ContentHash = model.HashContent(util.NormalizeForMatch(q.Content))
	}
	if err := store.SaveQuestion(context.Background(), &q); err != nil {
		t.Fatalf("SaveQuestion: %v", err)
	}
	return &q
}

func newTestSearchService(store *mockStore) *SearchService {
	return NewSearchService(store, nil, config.SearchConfig{})
}

func TestResolveExactID(t *testing.T) {
	store := newMockStore()
	seedQuestion(t, store, model.Question{
		QuestionID: "q1", Content: "1+1等于几", Type: model.TypeSingleChoice,
		Answer: "B", Source: model.SourceSystem, Confidence: 0.9,
	})
	svc := newTestSearchService(store)

	result, err := svc.Resolve(context.Background(), model.SearchQuery{
		QuestionID: "q1", Content: "完全不同的题干",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !result.Found || result.MatchTier != model.TierExactID {
		t.Fatalf("want exact_id hit, got %+v", result)
	}
	if result.Confidence != 1.0 {
		t.Errorf("exact hit confidence should be 1.0, got %v", result.Confidence)
	}
	if result.Answer != "B" {
		t.Errorf("unexpected answer %q", result.Answer)
	}
}

func TestResolveExactHash(t *testing.T) {
	store := newMockStore()
	seedQuestion(t, store, model.Question{
		QuestionID: "other", Content: "<p>下列说法【csrf:x】正确的是</p>",
		Answer: "A", Confidence: 0.8,
	})
	svc := newTestSearchService(store)

	// 不同的水印与标签不影响哈希命中
	result, err := svc.Resolve(context.Background(), model.SearchQuery{
		Content: "下列说法正确的是[token:y]",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !result.Found || result.MatchTier != model.TierExactHash {
		t.Fatalf("want exact_hash hit, got %+v", result)
	}
	if result.Confidence != 1.0 {
		t.Errorf("exact hit confidence should be 1.0, got %v", result.Confidence)
	}
}

// 存量记录答案为空时等同未命中，不能返回 found=true
func TestResolveBlankAnswerIsMiss(t *testing.T) {
	store := newMockStore()
	seedQuestion(t, store, model.Question{
		QuestionID: "q1", Content: "有题无答案的题干", Answer: "   ",
	})
	svc := newTestSearchService(store)

	result, err := svc.Resolve(context.Background(), model.SearchQuery{
		QuestionID: "q1", Content: "有题无答案的题干",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Found {
		t.Errorf("blank stored answer must be a miss, got %+v", result)
	}
}

func TestResolveFuzzy(t *testing.T) {
	store := newMockStore()
	seedQuestion(t, store, model.Question{
		QuestionID: "q1",
		Content:    "下列关于c语言指针的说法正确的是哪一个选项",
		Answer:     "C", Confidence: 0.8,
	})
	svc := newTestSearchService(store)

	// 个别字不同，走相似度层
	result, err := svc.Resolve(context.Background(), model.SearchQuery{
		Content: "下列关于c语言指针的说法正确的是哪个选项",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !result.Found || result.MatchTier != model.TierFuzzy {
		t.Fatalf("want fuzzy hit, got %+v", result)
	}
	// 模糊命中置信度 = 存储置信度 × 相似度，必须低于存储置信度
	if result.Confidence <= 0 || result.Confidence >= 0.8 {
		t.Errorf("fuzzy confidence should be scaled below stored 0.8, got %v", result.Confidence)
	}
}

func TestResolveFuzzyBelowThreshold(t *testing.T) {
	store := newMockStore()
	seedQuestion(t, store, model.Question{
		QuestionID: "q1", Content: "二战爆发于哪一年", Answer: "1939",
	})
	svc := newTestSearchService(store)

	result, err := svc.Resolve(context.Background(), model.SearchQuery{
		Content: "c语言中指针变量存储的是什么",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Found {
		t.Errorf("unrelated content must miss, got %+v", result)
	}
}

// 私有库未命中时回退公共库；私有命中优先于公共
func TestResolveScopeFallback(t *testing.T) {
	store := newMockStore()
	seedQuestion(t, store, model.Question{
		QuestionID: "q1", Content: "公共库的题干", Answer: "公共答案", Scope: model.ScopeGlobal,
	})
	seedQuestion(t, store, model.Question{
		QuestionID: "q1", Content: "私有库的题干", Answer: "私有答案", Scope: "user-7",
	})
	svc := newTestSearchService(store)
	ctx := context.Background()

	private, err := svc.Resolve(ctx, model.SearchQuery{QuestionID: "q1", Scope: "user-7"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if private.Answer != "私有答案" || private.Scope != "user-7" {
		t.Errorf("private scope should win: %+v", private)
	}

	fallback, err := svc.Resolve(ctx, model.SearchQuery{QuestionID: "q1", Scope: "user-8"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fallback.Answer != "公共答案" || fallback.Scope != model.ScopeGlobal {
		t.Errorf("unknown private scope should fall back to global: %+v", fallback)
	}
}

func TestBatchResolve(t *testing.T) {
	store := newMockStore()
	seedQuestion(t, store, model.Question{
		QuestionID: "q1", Content: "第一道题", Answer: "A",
	})
	seedQuestion(t, store, model.Question{
		QuestionID: "q2", Content: "第二道题", Answer: "B",
	})
	svc := newTestSearchService(store)

	batch, err := svc.BatchResolve(context.Background(), []model.SearchQuery{
		{QuestionID: "q2"},
		{QuestionID: "missing", Content: "无关内容完全不相干"},
		{QuestionID: "q1"},
	})
	if err != nil {
		t.Fatalf("BatchResolve: %v", err)
	}
	if batch.Total != 3 || batch.Found != 2 || batch.NotFound != 1 {
		t.Fatalf("unexpected stats: %+v", batch)
	}
	// 结果与请求顺序一致
	if batch.Results[0].Answer != "B" || batch.Results[2].Answer != "A" {
		t.Errorf("results out of order: %+v", batch.Results)
	}
	if batch.Results[1].Found {
		t.Error("second query should miss")
	}
}

func TestGetStats(t *testing.T) {
	store := newMockStore()
	seedQuestion(t, store, model.Question{Content: "a题", Type: model.TypeSingleChoice})
	seedQuestion(t, store, model.Question{Content: "b题", Type: model.TypeSingleChoice})
	seedQuestion(t, store, model.Question{Content: "c题", Type: model.TypeEssay})
	svc := newTestSearchService(store)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.ByType[model.TypeSingleChoice] != 2 || stats.ByType[model.TypeEssay] != 1 {
		t.Errorf("unexpected distribution: %+v", stats.ByType)
	}
}

// 纯ID查询没有题干，内容哈希对它们是常量；
// 缓存键必须带题目ID段，否则不同题目共用一个键、互相串答案
func TestCacheKeyDistinguishesIDOnlyQueries(t *testing.T) {
	svc := newTestSearchService(newMockStore())
	hash := model.HashContent(util.NormalizeForMatch(""))

	q1 := model.SearchQuery{QuestionID: "q1", Platform: "icve", Scope: "user-7"}
	q2 := model.SearchQuery{QuestionID: "q2", Platform: "icve", Scope: "user-7"}
	k1, k2 := svc.cacheKey(q1, hash), svc.cacheKey(q2, hash)
	if k1 == k2 {
		t.Fatalf("different questions share cache key %q", k1)
	}
	if k1 != svc.cacheKey(q1, hash) {
		t.Error("cache key must be deterministic for the same query")
	}

	// 带题干的查询与纯ID查询也不能共键
	content := model.SearchQuery{Platform: "icve", Scope: "user-7", Content: "题干"}
	contentHash := model.HashContent(util.NormalizeForMatch(content.Content))
	if svc.cacheKey(content, contentHash) == k1 {
		t.Error("content query must not collide with an ID-only query")
	}
}

func TestUpdateConfig(t *testing.T) {
	svc := newTestSearchService(newMockStore())

	svc.UpdateConfig(config.SearchConfig{SimilarityThreshold: 0.9, CandidateLimit: 10})
	threshold, limit, _ := svc.tuning()
	if threshold != 0.9 || limit != 10 {
		t.Errorf("tuning not applied: %v %v", threshold, limit)
	}

	// 非法值沿用旧值
	svc.UpdateConfig(config.SearchConfig{SimilarityThreshold: 1.5, CandidateLimit: -1})
	threshold, limit, _ = svc.tuning()
	if threshold != 0.9 || limit != 10 {
		t.Errorf("invalid tuning should be ignored: %v %v", threshold, limit)
	}
}
