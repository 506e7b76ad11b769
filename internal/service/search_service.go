package service

import (
	"answer_bank_backend/internal/config"
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/util"
	"answer_bank_backend/pkg/logger"
	"answer_bank_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchResolveParallelism 批量解析的并发上限
const batchResolveParallelism = 8

// SearchService 分层解析器：按 精确ID → 内容哈希 → 相似度 的固定顺序查找，
// 每层先查调用方私有库再查公共库，命中即短路。
// 调参字段支持配置热更新，读写经 mu 保护。
type SearchService struct {
	store Store
	rdb   *redis.Client

	mu             sync.RWMutex
	threshold      float64
	candidateLimit int
	cacheTTL       time.Duration
}

func NewSearchService(store Store, rdb *redis.Client, cfg config.SearchConfig) *SearchService {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.7
	}
	limit := cfg.CandidateLimit
	if limit <= 0 {
		limit = 50
	}
	return &SearchService{
		store:          store,
		rdb:            rdb,
		threshold:      threshold,
		candidateLimit: limit,
		cacheTTL:       time.Duration(cfg.CacheTTLMinutes) * time.Minute,
	}
}

// UpdateConfig 应用热更新后的检索参数，非法值沿用旧值
func (s *SearchService) UpdateConfig(cfg config.SearchConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.SimilarityThreshold > 0 && cfg.SimilarityThreshold <= 1 {
		s.threshold = cfg.SimilarityThreshold
	}
	if cfg.CandidateLimit > 0 {
		s.candidateLimit = cfg.CandidateLimit
	}
	if cfg.CacheTTLMinutes >= 0 {
		s.cacheTTL = time.Duration(cfg.CacheTTLMinutes) * time.Minute
	}
}

// tuning 取当前调参快照
func (s *SearchService) tuning() (threshold float64, candidateLimit int, cacheTTL time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold, s.candidateLimit, s.cacheTTL
}

// Resolve 解析一条查询。未命中不是错误（Found=false）；
// 存储故障以 util.ErrStorageUnavailable 包装错误返回，与未命中严格区分。
func (s *SearchService) Resolve(ctx context.Context, query model.SearchQuery) (model.SearchResult, error) {
	query.Type = model.CanonicalType(query.Type)
	normalized := util.NormalizeForMatch(query.Content)
	hash := model.HashContent(normalized)

	if cached, ok := s.cacheGet(ctx, query, hash); ok {
		monitoring.SearchRequests.WithLabelValues("cache", "hit").Inc()
		return cached, nil
	}

	scopes := scopeChain(query.Scope)

	// 第一层：平台题目ID精确匹配
	if strings.TrimSpace(query.QuestionID) != "" {
		for _, scope := range scopes {
			question, err := s.store.GetQuestionByQID(ctx, scope, query.QuestionID, query.Platform)
			if errors.Is(err, util.ErrQuestionNotFound) {
				continue
			}
			if err != nil {
				return model.SearchResult{}, err
			}
			if hasAnswer(question) {
				result := resultFrom(question, model.TierExactID, 1.0)
				s.cachePut(ctx, query, hash, result)
				monitoring.SearchRequests.WithLabelValues(model.TierExactID, "hit").Inc()
				return result, nil
			}
			// 答案为空按未命中处理，继续向后层查找
		}
	}

	// 第二层：内容哈希精确匹配
	if normalized != "" {
		for _, scope := range scopes {
			question, err := s.store.GetQuestionByHash(ctx, scope, hash)
			if errors.Is(err, util.ErrQuestionNotFound) {
				continue
			}
			if err != nil {
				return model.SearchResult{}, err
			}
			if hasAnswer(question) {
				result := resultFrom(question, model.TierExactHash, 1.0)
				s.cachePut(ctx, query, hash, result)
				monitoring.SearchRequests.WithLabelValues(model.TierExactHash, "hit").Inc()
				return result, nil
			}
		}
	}

	// 第三层：有界候选集上的相似度匹配
	if normalized != "" {
		for _, scope := range scopes {
			result, err := s.fuzzyResolve(ctx, scope, query, normalized)
			if err != nil {
				return model.SearchResult{}, err
			}
			if result.Found {
				monitoring.SearchRequests.WithLabelValues(model.TierFuzzy, "hit").Inc()
				return result, nil
			}
		}
	}

	monitoring.SearchRequests.WithLabelValues("none", "miss").Inc()
	return model.SearchResult{Found: false}, nil
}

// fuzzyResolve 在单个作用域内做相似度匹配：先对有界候选集做快照再打分
func (s *SearchService) fuzzyResolve(ctx context.Context, scope string, query model.SearchQuery, normalized string) (model.SearchResult, error) {
	threshold, candidateLimit, _ := s.tuning()
	candidates, err := s.store.ListCandidates(ctx, scope, query.Type, query.Platform, candidateLimit)
	if err != nil {
		return model.SearchResult{}, err
	}

	var best *model.Question
	bestScore := 0.0
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return model.SearchResult{}, err
		}
		candidate := &candidates[i]
		if candidate.QuestionID == "" && candidate.ID == 0 || strings.TrimSpace(candidate.Content) == "" {
			logger.Log.Warn("候选记录缺少标识或题干，跳过",
				zap.Uint("id", candidate.ID), zap.String("questionId", candidate.QuestionID))
			continue
		}
		score := util.Similarity(normalized, util.NormalizeForMatch(candidate.Content))
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	if best == nil || bestScore < threshold || !hasAnswer(best) {
		return model.SearchResult{Found: false}, nil
	}
	// 模糊命中的置信度 = 存储置信度 × 相似度
	return resultFrom(best, model.TierFuzzy, bestScore*confidenceOr(best.Confidence)), nil
}

// BatchResolve 批量解析，条目之间相互独立、只共享只读存储访问
func (s *SearchService) BatchResolve(ctx context.Context, queries []model.SearchQuery) (*model.BatchSearchResult, error) {
	results := make([]model.SearchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchResolveParallelism)
	for i := range queries {
		g.Go(func() error {
			result, err := s.Resolve(gctx, queries[i])
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &model.BatchSearchResult{Results: results, Total: len(results)}
	for i := range results {
		if results[i].Found {
			batch.Found++
		} else {
			batch.NotFound++
		}
	}
	return batch, nil
}

// GetStats 题库规模统计
func (s *SearchService) GetStats(ctx context.Context) (*model.StoreStats, error) {
	total, err := s.store.CountQuestions(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.store.CountQuestionsByType(ctx)
	if err != nil {
		return nil, err
	}
	return &model.StoreStats{Total: total, ByType: byType}, nil
}

// cacheKey 的身份部分必须包含题目ID：纯ID查询没有题干，
// 内容哈希对它们是常量，少了ID段会让不同题目撞到同一个键上。
func (s *SearchService) cacheKey(query model.SearchQuery, hash string) string {
	return fmt.Sprintf("answer_bank:search:%s:%s:%s:%s",
		query.Platform, query.Scope, strings.TrimSpace(query.QuestionID), hash)
}

// cacheGet 读缓存；缓存故障只告警，从不影响解析
func (s *SearchService) cacheGet(ctx context.Context, query model.SearchQuery, hash string) (model.SearchResult, bool) {
	_, _, cacheTTL := s.tuning()
	if s.rdb == nil || cacheTTL <= 0 {
		return model.SearchResult{}, false
	}
	data, err := s.rdb.Get(ctx, s.cacheKey(query, hash)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("搜索缓存读取失败", zap.Error(err))
		}
		return model.SearchResult{}, false
	}
	var result model.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return model.SearchResult{}, false
	}
	return result, true
}

// cachePut 只缓存精确层命中；模糊命中依赖阈值与候选集，不缓存
func (s *SearchService) cachePut(ctx context.Context, query model.SearchQuery, hash string, result model.SearchResult) {
	_, _, cacheTTL := s.tuning()
	if s.rdb == nil || cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, s.cacheKey(query, hash), data, cacheTTL).Err(); err != nil {
		logger.Log.Warn("搜索缓存写入失败", zap.Error(err))
	}
}

// scopeChain 私有库优先，其后回退公共库
func scopeChain(scope string) []string {
	if scope == model.ScopeGlobal {
		return []string{model.ScopeGlobal}
	}
	return []string{scope, model.ScopeGlobal}
}

func hasAnswer(q *model.Question) bool {
	return strings.TrimSpace(q.Answer) != ""
}

func resultFrom(q *model.Question, tier string, confidence float64) model.SearchResult {
	return model.SearchResult{
		Found:       true,
		Answer:      q.Answer,
		Explanation: q.Explanation,
		Confidence:  confidence,
		MatchTier:   tier,
		Source:      q.Source,
		Scope:       q.Scope,
		QuestionID:  q.QuestionID,
	}
}

// confidenceOr 镜像置信度缺省按 1.0 处理，避免模糊命中被清零
func confidenceOr(c float64) float64 {
	if c <= 0 {
		return 1.0
	}
	return c
}
