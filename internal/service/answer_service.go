package service

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/util"
	"answer_bank_backend/pkg/logger"
	"answer_bank_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// recomputeRetries 最佳答案重算在瞬态存储错误下的重试上限
const recomputeRetries = 3

// AnswerService 答案聚合服务：多答案存储、投票、最佳答案评定与冲突检测。
// 同一题目的全部变更走按题加锁的临界区，且每次调用一个事务，
// 保证任意时刻最多一条 Accepted 答案。
type AnswerService struct {
	store Store
	locks keyMutex
}

func NewAnswerService(store Store) *AnswerService {
	return &AnswerService{store: store}
}

// SubmitAnswer 提交答案。(题目, 答案值, 来源) 重复时不插入新记录，
// 置信度取新旧较大值；题目不存在则按内容哈希建题。
// 每次插入或更新后重算最佳答案。
func (s *AnswerService) SubmitAnswer(ctx context.Context, sub model.AnswerSubmission) (*model.Answer, error) {
	value := canonicalValue(sub.Value)
	if value == "" {
		return nil, fmt.Errorf("%w: 答案值为空", util.ErrInvalidSubmission)
	}
	if strings.TrimSpace(sub.Content) == "" && strings.TrimSpace(sub.QuestionID) == "" {
		return nil, fmt.Errorf("%w: 缺少题干和题目ID", util.ErrInvalidSubmission)
	}

	sub.Type = model.CanonicalType(sub.Type)
	sub.Source = model.CanonicalSource(sub.Source)
	sub.Confidence = clampConfidence(sub.Confidence)

	normalized := util.NormalizeForMatch(sub.Content)
	hash := model.HashContent(normalized)

	// 锁键统一取目标题目的 scope+内容哈希，与投票、重算路径一致。
	// 无题干提交挂靠已有题目，必须先解出该题再取它的哈希做键，
	// 否则同一题的提交和投票会落在不同的锁上。
	lockScope, lockHash := sub.Scope, hash
	if strings.TrimSpace(sub.Content) == "" {
		question, err := s.store.GetQuestionByQID(ctx, sub.Scope, sub.QuestionID, sub.Platform)
		if errors.Is(err, util.ErrQuestionNotFound) {
			return nil, fmt.Errorf("%w: 题目 %s 不存在且未提供题干", util.ErrInvalidSubmission, sub.QuestionID)
		}
		if err != nil {
			return nil, err
		}
		lockScope, lockHash = question.Scope, question.ContentHash
	}

	unlock := s.locks.Lock(mutationKey(lockScope, lockHash))
	defer unlock()

	var saved *model.Answer
	err := s.withRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx Store) error {
			question, err := findOrCreateQuestion(ctx, tx, &sub, hash)
			if err != nil {
				return err
			}

			existing, err := tx.FindAnswer(ctx, question.ID, value, sub.Source)
			switch {
			case err == nil:
				if sub.Confidence > existing.Confidence {
					existing.Confidence = sub.Confidence
					if err := tx.SaveAnswer(ctx, existing); err != nil {
						return err
					}
				}
				saved = existing
			case errors.Is(err, util.ErrAnswerNotFound):
				answer := &model.Answer{
					QuestionRef: question.ID,
					Value:       value,
					Explanation: sub.Explanation,
					Source:      sub.Source,
					Contributor: contributorOr(sub.Contributor, sub.Source),
					Confidence:  sub.Confidence,
					Verified:    sub.Verified,
				}
				if err := tx.SaveAnswer(ctx, answer); err != nil {
					return err
				}
				saved = answer
			default:
				return err
			}

			return recomputeBestTx(ctx, tx, question)
		})
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Vote 对答案投票（可正可负），然后重算最佳答案
func (s *AnswerService) Vote(ctx context.Context, answerID uint, delta int) (*model.Answer, error) {
	answer, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	question, err := s.store.GetQuestion(ctx, answer.QuestionRef)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(mutationKey(question.Scope, question.ContentHash))
	defer unlock()

	var voted *model.Answer
	err = s.withRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx Store) error {
			answer, err := tx.GetAnswer(ctx, answerID)
			if err != nil {
				return err
			}
			answer.VoteCount += delta
			if err := tx.SaveAnswer(ctx, answer); err != nil {
				return err
			}
			voted = answer

			question, err := tx.GetQuestion(ctx, answer.QuestionRef)
			if err != nil {
				return err
			}
			return recomputeBestTx(ctx, tx, question)
		})
	})
	if err != nil {
		return nil, err
	}
	return voted, nil
}

// RecomputeBest 按题目主键重算最佳答案（质量修复入口）
func (s *AnswerService) RecomputeBest(ctx context.Context, questionRef uint) error {
	question, err := s.store.GetQuestion(ctx, questionRef)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(mutationKey(question.Scope, question.ContentHash))
	defer unlock()

	return s.withRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx Store) error {
			question, err := tx.GetQuestion(ctx, questionRef)
			if err != nil {
				return err
			}
			return recomputeBestTx(ctx, tx, question)
		})
	})
}

// DeleteAndRecompute 删除指定答案后重算（质量修复专用）
func (s *AnswerService) DeleteAndRecompute(ctx context.Context, questionRef uint, answerIDs []uint) error {
	question, err := s.store.GetQuestion(ctx, questionRef)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(mutationKey(question.Scope, question.ContentHash))
	defer unlock()

	return s.withRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx Store) error {
			for _, id := range answerIDs {
				if err := tx.DeleteAnswer(ctx, id); err != nil {
					return err
				}
			}
			question, err := tx.GetQuestion(ctx, questionRef)
			if err != nil {
				return err
			}
			return recomputeBestTx(ctx, tx, question)
		})
	})
}

// DetectConflicts 按规范化答案值分组统计；出现多于一组即为冲突
func (s *AnswerService) DetectConflicts(ctx context.Context, questionID string) (*model.ConflictReport, error) {
	question, err := s.store.FindQuestionByQIDString(ctx, questionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.ListAnswers(ctx, question.ID)
	if err != nil {
		return nil, err
	}

	groups := groupByValue(answers)
	return &model.ConflictReport{
		QuestionID:  question.QuestionID,
		HasConflict: len(groups) > 1,
		AnswerCount: len(answers),
		UniqueCount: len(groups),
		Groups:      groups,
	}, nil
}

// withRetry 瞬态存储错误时有界重试
func (s *AnswerService) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < recomputeRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = op(); err == nil {
			return nil
		}
		if !util.IsTransient(err) {
			return err
		}
		monitoring.RecomputeRetries.Inc()
		logger.Log.Warn("存储瞬态错误，重试最佳答案重算",
			zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return err
}

// recomputeBestTx 清空全部 accepted 标记，按优先级选出唯一最佳答案，
// 并把它镜像到题目冗余字段。必须在事务内调用。
func recomputeBestTx(ctx context.Context, tx Store, question *model.Question) error {
	answers, err := tx.ListAnswers(ctx, question.ID)
	if err != nil {
		return err
	}

	var best *model.Answer
	for i := range answers {
		if best == nil || answerOutranks(&answers[i], best) {
			best = &answers[i]
		}
	}

	for i := range answers {
		accepted := best != nil && answers[i].ID == best.ID
		if answers[i].Accepted != accepted {
			answers[i].Accepted = accepted
			if err := tx.SaveAnswer(ctx, &answers[i]); err != nil {
				return err
			}
		}
	}

	if best != nil {
		question.Answer = best.Value
		question.Explanation = best.Explanation
		question.Source = best.Source
		question.Confidence = best.Confidence
		question.Verified = best.Verified
	} else {
		question.Answer = ""
		question.Explanation = ""
		question.Source = ""
		question.Confidence = 0
		question.Verified = false
	}
	return tx.SaveQuestion(ctx, question)
}

// answerOutranks 最佳答案比较器：字典序比较
// (verified, 来源为crowd_verified, 票数, 置信度)，全部相同时先插入者胜出。
// 独立成函数便于单测。
func answerOutranks(a, b *model.Answer) bool {
	if a.Verified != b.Verified {
		return a.Verified
	}
	aCrowd, bCrowd := a.Source == model.SourceCrowdVerified, b.Source == model.SourceCrowdVerified
	if aCrowd != bCrowd {
		return aCrowd
	}
	if a.VoteCount != b.VoteCount {
		return a.VoteCount > b.VoteCount
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.ID < b.ID
}

func findOrCreateQuestion(ctx context.Context, tx Store, sub *model.AnswerSubmission, hash string) (*model.Question, error) {
	// 没有题干时只能按平台题目ID挂靠已有题目
	if strings.TrimSpace(sub.Content) == "" {
		question, err := tx.GetQuestionByQID(ctx, sub.Scope, sub.QuestionID, sub.Platform)
		if errors.Is(err, util.ErrQuestionNotFound) {
			return nil, fmt.Errorf("%w: 题目 %s 不存在且未提供题干", util.ErrInvalidSubmission, sub.QuestionID)
		}
		return question, err
	}

	question, err := tx.GetQuestionByHash(ctx, sub.Scope, hash)
	if err == nil {
		return question, nil
	}
	if !errors.Is(err, util.ErrQuestionNotFound) {
		return nil, err
	}

	var options json.RawMessage
	if len(sub.Options) > 0 {
		options, _ = json.Marshal(sub.Options)
	}
	question = &model.Question{
		QuestionID:  sub.QuestionID,
		Content:     sub.Content,
		ContentHash: hash,
		Type:        sub.Type,
		Platform:    sub.Platform,
		Scope:       sub.Scope,
		Options:     options,
	}
	if err := tx.SaveQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

func groupByValue(answers []model.Answer) []model.ValueGroup {
	type agg struct {
		value      string
		count      int
		confidence float64
		votes      int
		sources    map[string]bool
	}
	byValue := make(map[string]*agg)
	var order []string
	for i := range answers {
		key := util.NormalizeAnswerValue(answers[i].Value)
		g, ok := byValue[key]
		if !ok {
			g = &agg{value: answers[i].Value, sources: make(map[string]bool)}
			byValue[key] = g
			order = append(order, key)
		}
		g.count++
		g.confidence += answers[i].Confidence
		g.votes += answers[i].VoteCount
		g.sources[answers[i].Source] = true
	}

	groups := make([]model.ValueGroup, 0, len(order))
	for _, key := range order {
		g := byValue[key]
		sources := make([]string, 0, len(g.sources))
		for src := range g.sources {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		groups = append(groups, model.ValueGroup{
			Value:      g.value,
			Count:      g.count,
			Confidence: g.confidence / float64(g.count),
			Votes:      g.votes,
			Sources:    sources,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Votes != groups[j].Votes {
			return groups[i].Votes > groups[j].Votes
		}
		return groups[i].Confidence > groups[j].Confidence
	})
	return groups
}

// canonicalValue 答案值的存储形态：字母集合取规范形态（排序、去重、大写），
// 自由文本保留原文只去首尾空白
func canonicalValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	normalized := util.NormalizeAnswerValue(v)
	if isLetterSet(normalized) {
		return normalized
	}
	return v
}

func isLetterSet(v string) bool {
	if v == "" {
		return false
	}
	for _, part := range strings.Split(v, ",") {
		if len(part) != 1 || part[0] < 'A' || part[0] > 'Z' {
			return false
		}
	}
	return true
}

func contributorOr(contributor, source string) string {
	if strings.TrimSpace(contributor) != "" {
		return contributor
	}
	return source
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func mutationKey(scope, hash string) string {
	return scope + "|" + hash
}
